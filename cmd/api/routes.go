package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/auth"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/handlers"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/middleware"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/requesttypes"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/trust"
)

// RegisterV1Routes adds the /v1/ engine endpoints to the given mux.
// Service-key auth guards the endpoints the job-assignment workflow calls;
// admin JWT auth guards operator actions (suspend, lift, cleanup, configs).
func RegisterV1Routes(
	mux *http.ServeMux,
	pool *pgxpool.Pool,
	agentRepo *repository.AgentRepo,
	serviceKeyRepo *repository.ServiceKeyRepo,
	checker *trust.Checker,
	recorder *trust.Recorder,
	manager *trust.Manager,
	authSvc auth.Service,
	logger *slog.Logger,
) {
	rtRepo := requesttypes.NewRepository(pool)
	rtSvc := requesttypes.NewService(rtRepo)
	rtHandler := requesttypes.NewHandler(rtSvc, logger)

	th := &handlers.TrustHandler{
		Agents:       agentRepo,
		RequestTypes: rtSvc,
		Checker:      checker,
		Recorder:     recorder,
		Manager:      manager,
		Logger:       logger,
	}

	svcAuth := middleware.ServiceKeyAuth(serviceKeyRepo)
	adminAuth := middleware.AdminAuth(authSvc)

	// Eligibility and ranking: called per assignment decision.
	mux.Handle("POST /v1/eligibility/check", svcAuth(http.HandlerFunc(th.CheckEligibility)))
	mux.Handle("POST /v1/eligibility/rank", svcAuth(http.HandlerFunc(th.RankCandidates)))

	// Failure recording and lookups.
	mux.Handle("POST /v1/failures", svcAuth(http.HandlerFunc(th.RecordFailure)))
	mux.Handle("POST /v1/failures/{id}/dispute", adminAuth(http.HandlerFunc(th.DisputeFailure)))
	mux.Handle("GET /v1/agents/{id}/failures", svcAuth(http.HandlerFunc(th.GetAgentFailures)))
	mux.Handle("GET /v1/agents/{id}/failures/recent", svcAuth(http.HandlerFunc(th.GetRecentFailures)))
	mux.Handle("GET /v1/agents/{id}/blacklist/{requestID}", svcAuth(http.HandlerFunc(th.IsBlacklisted)))

	// Suspension lifecycle.
	mux.Handle("GET /v1/agents/{id}/suspension", svcAuth(http.HandlerFunc(th.GetSuspension)))
	mux.Handle("POST /v1/agents/{id}/suspension", adminAuth(http.HandlerFunc(th.SuspendAgent)))
	mux.Handle("DELETE /v1/agents/{id}/suspension", adminAuth(http.HandlerFunc(th.LiftSuspension)))
	mux.Handle("POST /v1/agents/{id}/reinstate", adminAuth(http.HandlerFunc(th.ReinstateAgent)))
	mux.Handle("GET /v1/agents/{id}/suspensions", adminAuth(http.HandlerFunc(th.GetSuspensionHistory)))

	// Level progression.
	mux.Handle("GET /v1/agents/{id}/level-upgrade", svcAuth(http.HandlerFunc(th.GetLevelUpgrade)))

	// Operator tooling.
	mux.Handle("GET /v1/trust/statistics", adminAuth(http.HandlerFunc(th.GetStatistics)))
	mux.Handle("POST /v1/trust/cleanup", adminAuth(http.HandlerFunc(th.CleanupExpiredSuspensions)))

	// Request-type config management.
	mux.Handle("POST /v1/request-types", adminAuth(http.HandlerFunc(rtHandler.Create)))
	mux.Handle("GET /v1/request-types", svcAuth(http.HandlerFunc(rtHandler.List)))
	mux.Handle("GET /v1/request-types/{id}", svcAuth(http.HandlerFunc(rtHandler.Get)))
}
