package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Budgets
	r.HandleFunc("/api/budget", deps.BudgetHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/budget/{budgetId}/item", deps.BudgetHandler.ImportItems).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/item", deps.BudgetHandler.GetItems).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/tree", deps.BudgetHandler.GetTree).Methods("GET")

	// Additive amendments
	r.HandleFunc("/api/budget/{budgetId}/amendment", deps.AdditiveHandler.CreateAmendment).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/amendment", deps.AdditiveHandler.ListAmendments).Methods("GET")
	r.HandleFunc("/api/amendment/{amendmentId}/approval", deps.AdditiveHandler.Approve).Methods("PUT")
	r.HandleFunc("/api/amendment/{amendmentId}/line", deps.AdditiveHandler.AddLines).Methods("POST")
	r.HandleFunc("/api/amendment/{amendmentId}/line", deps.AdditiveHandler.GetLines).Methods("GET")

	// Daily reports
	r.HandleFunc("/api/budget/{budgetId}/report", deps.ReportHandler.CreateReport).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/report", deps.ReportHandler.ListReports).Methods("GET")
	r.HandleFunc("/api/report/{reportUid}", deps.ReportHandler.GetReport).Methods("GET")
	r.HandleFunc("/api/report/{reportUid}/status", deps.ReportHandler.SetStatus).Methods("PUT")
	r.HandleFunc("/api/report/{reportUid}", deps.ReportHandler.DeleteReport).Methods("DELETE")

	// Execution ledger
	r.HandleFunc("/api/report/{reportUid}/execution/{itemId}", deps.ExecutionHandler.SetExecutedToday).Methods("PUT")
	r.HandleFunc("/api/report/{reportUid}/execution/{itemId}", deps.ExecutionHandler.EnqueueExecutedToday).Methods("PATCH")
	r.HandleFunc("/api/report/{reportUid}/execution/{itemId}", deps.ExecutionHandler.GetDerivedState).Methods("GET")
	r.HandleFunc("/api/execution/flush", deps.ExecutionHandler.FlushPending).Methods("POST")

	// Progress projection
	r.HandleFunc("/api/report/{reportUid}/progress", deps.ProgressHandler.GetProgress).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
}
