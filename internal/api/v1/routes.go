// Package v1 provides the REST API handlers for the caravel platform.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caravelhq/caravel/internal/agent"
	"github.com/caravelhq/caravel/internal/consumer"
	"github.com/caravelhq/caravel/internal/feed"
	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/repo"
	"github.com/caravelhq/caravel/internal/schedule"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes holds the services the API dispatches to.
type Routes struct {
	repositories *repo.Service
	directory    *consumer.StoreDirectory
	groups       *consumer.Registry
	fanout       *consumer.Fanout
}

// NewRoutes creates a Routes instance with the provided services.
func NewRoutes(
	repositories *repo.Service,
	directory *consumer.StoreDirectory,
	groups *consumer.Registry,
	fanout *consumer.Fanout,
) *Routes {
	return &Routes{
		repositories: repositories,
		directory:    directory,
		groups:       groups,
		fanout:       fanout,
	}
}

// Router builds the HTTP router for the platform API.
func Router(routes *Routes, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/repositories", func(r chi.Router) {
			r.Get("/", routes.listRepositories)
			r.Post("/", routes.createRepository)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", routes.getRepository)
				r.Delete("/", routes.deleteRepository)
				r.Post("/sync", routes.triggerSync)
				r.Get("/packages", routes.listRepositoryPackages)
				r.Post("/packages", routes.addPackage)
				r.Delete("/packages/{packageID}", routes.removePackage)
				r.Post("/uploads", routes.uploadPackage)
				r.Put("/groups", routes.upsertGroups)
				r.Delete("/groups/{groupID}", routes.removeGroup)
				r.Post("/groups/{groupID}/packages", routes.addPackageToGroup)
				r.Delete("/groups/{groupID}/packages", routes.removePackageFromGroup)
				r.Put("/categories", routes.upsertCategories)
				r.Delete("/categories/{categoryID}", routes.removeCategory)
			})
		})

		r.Route("/consumers", func(r chi.Router) {
			r.Get("/", routes.listConsumers)
			r.Post("/", routes.registerConsumer)
			r.Delete("/{id}", routes.unregisterConsumer)
		})

		r.Route("/consumergroups", func(r chi.Router) {
			r.Get("/", routes.listGroups)
			r.Post("/", routes.createGroup)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", routes.getGroup)
				r.Delete("/", routes.deleteGroup)
				r.Post("/consumers", routes.addGroupConsumer)
				r.Delete("/consumers/{consumerID}", routes.removeGroupConsumer)
				r.Post("/bind", routes.bindGroup)
				r.Post("/unbind", routes.unbindGroup)
				r.Post("/installpackages", routes.installPackages)
				r.Post("/installerrata", routes.installErrata)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), ErrorResponse{Error: err.Error()})
}

// statusForError maps the platform error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.Is(err, schedule.ErrInvalidSchedule),
		errors.Is(err, repo.ErrConditionalUnsupported),
		errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.Is(err, repo.ErrUnschedulable),
		errors.Is(err, repo.ErrSyncBusy):
		return http.StatusConflict
	case errors.Is(err, repo.ErrSync),
		errors.Is(err, feed.ErrFetch),
		errors.Is(err, agent.ErrUnreachable),
		errors.Is(err, agent.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

type createRepositoryRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Architecture string `json:"architecture"`
	Feed         string `json:"feed"`
	UseSymlinks  bool   `json:"useSymlinks"`
	SyncSchedule string `json:"syncSchedule"`
}

func (rt *Routes) createRepository(w http.ResponseWriter, r *http.Request) {
	var req createRepositoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	repository, err := rt.repositories.Create(r.Context(),
		req.ID, req.Name, req.Architecture, req.Feed, req.UseSymlinks, req.SyncSchedule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, repository)
}

func (rt *Routes) listRepositories(w http.ResponseWriter, r *http.Request) {
	repositories, err := rt.repositories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repositories)
}

func (rt *Routes) getRepository(w http.ResponseWriter, r *http.Request) {
	repository, err := rt.repositories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repository)
}

func (rt *Routes) deleteRepository(w http.ResponseWriter, r *http.Request) {
	if err := rt.repositories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) triggerSync(w http.ResponseWriter, r *http.Request) {
	if err := rt.repositories.TriggerSync(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synchronized"})
}

func (rt *Routes) listRepositoryPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := rt.repositories.Packages(r.Context(),
		chi.URLParam(r, "id"), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (rt *Routes) addPackage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID string `json:"packageId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.repositories.AddPackage(r.Context(), chi.URLParam(r, "id"), req.PackageID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) removePackage(w http.ResponseWriter, r *http.Request) {
	err := rt.repositories.RemovePackage(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "packageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) uploadPackage(w http.ResponseWriter, r *http.Request) {
	var pkg model.Package
	if !decodeBody(w, r, &pkg) {
		return
	}
	uploaded, err := rt.repositories.Upload(r.Context(), chi.URLParam(r, "id"), pkg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (rt *Routes) upsertGroups(w http.ResponseWriter, r *http.Request) {
	var groups []model.PackageGroup
	if !decodeBody(w, r, &groups) {
		return
	}
	if err := rt.repositories.UpsertGroups(r.Context(), chi.URLParam(r, "id"), groups); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) removeGroup(w http.ResponseWriter, r *http.Request) {
	err := rt.repositories.RemoveGroup(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type groupMembershipRequest struct {
	PackageName string               `json:"packageName"`
	Kind        model.MembershipKind `json:"kind"`
}

func (rt *Routes) addPackageToGroup(w http.ResponseWriter, r *http.Request) {
	var req groupMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = model.KindDefault
	}
	err := rt.repositories.AddPackageToGroup(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "groupID"), req.PackageName, req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) removePackageFromGroup(w http.ResponseWriter, r *http.Request) {
	var req groupMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = model.KindDefault
	}
	err := rt.repositories.RemovePackageFromGroup(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "groupID"), req.PackageName, req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) upsertCategories(w http.ResponseWriter, r *http.Request) {
	var categories []model.PackageGroupCategory
	if !decodeBody(w, r, &categories) {
		return
	}
	if err := rt.repositories.UpsertCategories(r.Context(), chi.URLParam(r, "id"), categories); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) removeCategory(w http.ResponseWriter, r *http.Request) {
	err := rt.repositories.RemoveCategory(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) listConsumers(w http.ResponseWriter, r *http.Request) {
	consumers, err := rt.directory.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consumers)
}

func (rt *Routes) registerConsumer(w http.ResponseWriter, r *http.Request) {
	var c model.Consumer
	if !decodeBody(w, r, &c) {
		return
	}
	registered, err := rt.directory.Register(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registered)
}

func (rt *Routes) unregisterConsumer(w http.ResponseWriter, r *http.Request) {
	if err := rt.directory.Unregister(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createGroupRequest struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	ConsumerIDs []string `json:"consumerIds"`
}

func (rt *Routes) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	group, err := rt.groups.Create(r.Context(), req.ID, req.Description, req.ConsumerIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (rt *Routes) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := rt.groups.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (rt *Routes) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := rt.groups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (rt *Routes) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := rt.groups.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) addGroupConsumer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConsumerID string `json:"consumerId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.groups.AddConsumer(r.Context(), chi.URLParam(r, "id"), req.ConsumerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) removeGroupConsumer(w http.ResponseWriter, r *http.Request) {
	err := rt.groups.RemoveConsumer(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "consumerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bindRequest struct {
	RepositoryID string `json:"repositoryId"`
}

func (rt *Routes) bindGroup(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.groups.Bind(r.Context(), chi.URLParam(r, "id"), req.RepositoryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) unbindGroup(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.groups.Unbind(r.Context(), chi.URLParam(r, "id"), req.RepositoryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dispatchResponse struct {
	Dispatched map[string][]string `json:"dispatched"`
	Errors     map[string]string   `json:"errors,omitempty"`
}

func toDispatchResponse(result *consumer.DispatchResult) dispatchResponse {
	resp := dispatchResponse{Dispatched: result.Dispatched}
	if len(result.Errors) > 0 {
		resp.Errors = make(map[string]string, len(result.Errors))
		for consumerID, err := range result.Errors {
			resp.Errors[consumerID] = err.Error()
		}
	}
	return resp
}

func (rt *Routes) installPackages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageNames []string `json:"packageNames"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := rt.fanout.InstallPackages(r.Context(), chi.URLParam(r, "id"), req.PackageNames)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDispatchResponse(result))
}

func (rt *Routes) installErrata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ErrataIDs  []string `json:"errataIds"`
		TypeFilter []string `json:"typeFilter"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := rt.fanout.InstallErrata(r.Context(),
		chi.URLParam(r, "id"), req.ErrataIDs, req.TypeFilter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDispatchResponse(result))
}
