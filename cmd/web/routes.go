package main

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
	"github.com/Oozturn/oozturn-sub001/internal/engine"
	"github.com/Oozturn/oozturn-sub001/internal/httputil"
	"github.com/Oozturn/oozturn-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type createRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Settings    []engine.Settings `json:"settings"`
}

type playerRequest struct {
	UserID string `json:"userId"`
}

type teamRequest struct {
	Name string `json:"name"`
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type balancingRequest struct {
	On bool `json:"on"`
}

type scoreRequest struct {
	Match    bracket.ID `json:"match"`
	Opponent string     `json:"opponent"`
	Score    float64    `json:"score"`
}

type bracketView struct {
	Kind     bracket.Kind    `json:"kind"`
	Done     bool            `json:"done"`
	Matches  []bracket.Match `json:"matches"`
	Upcoming []bracket.Match `json:"upcoming"`
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func bracketIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "idx"))
}

// mutate applies fn to one tournament and answers with the updated snapshot.
func mutate(svc *service.TournamentService, fn func(r *http.Request, e *engine.Engine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Update(r.Context(), id, func(e *engine.Engine) error { return fn(r, e) }); err != nil {
			httputil.Error(w, err)
			return
		}
		snapshot, err := svc.Get(id)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, snapshot)
	}
}

// mutateJSON is mutate with a request body decoded before the tournament
// is locked.
func mutateJSON[T any](svc *service.TournamentService, fn func(req T, r *http.Request, e *engine.Engine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decode(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		mutate(svc, func(r *http.Request, e *engine.Engine) error { return fn(req, r, e) })(w, r)
	}
}

func newRouter(svc *service.TournamentService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.List(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list tournaments", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, summaries)
	})

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decode(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.Name == "" {
			httputil.BadRequest(w, "Tournament name is required", nil)
			return
		}
		id, err := svc.Create(r.Context(), engine.Properties{Name: req.Name, Description: req.Description}, req.Settings)
		if err != nil {
			httputil.InternalServerError(w, "Failed to create tournament", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			snapshot, err := svc.Get(chi.URLParam(r, "id"))
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, snapshot)
		})

		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
				httputil.Error(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Put("/properties", mutateJSON(svc, func(props engine.Properties, r *http.Request, e *engine.Engine) error {
			e.SetProperties(props)
			return nil
		}))

		r.Put("/settings", mutateJSON(svc, func(settings []engine.Settings, r *http.Request, e *engine.Engine) error {
			return e.SetSettings(settings)
		}))

		r.Post("/players", mutateJSON(svc, func(req playerRequest, r *http.Request, e *engine.Engine) error {
			return e.AddPlayer(req.UserID)
		}))

		r.Delete("/players/{userID}", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.RemovePlayer(chi.URLParam(r, "userID"))
		}))

		r.Post("/players/reorder", mutateJSON(svc, func(req reorderRequest, r *http.Request, e *engine.Engine) error {
			return e.ReorderPlayer(req.From, req.To)
		}))

		r.Post("/teams", mutateJSON(svc, func(req teamRequest, r *http.Request, e *engine.Engine) error {
			return e.AddTeam(req.Name)
		}))

		r.Post("/teams/reorder", mutateJSON(svc, func(req reorderRequest, r *http.Request, e *engine.Engine) error {
			return e.ReorderTeam(req.From, req.To)
		}))

		r.Post("/teams/distribute", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.DistributePlayersOnTeams()
		}))

		r.Post("/teams/balance", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.BalanceTeams()
		}))

		r.Post("/teams/randomize", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.RandomizePlayersOnTeams(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		}))

		r.Put("/teams/{team}", mutateJSON(svc, func(req teamRequest, r *http.Request, e *engine.Engine) error {
			return e.RenameTeam(chi.URLParam(r, "team"), req.Name)
		}))

		r.Delete("/teams/{team}", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.RemoveTeam(chi.URLParam(r, "team"))
		}))

		r.Post("/teams/{team}/players", mutateJSON(svc, func(req playerRequest, r *http.Request, e *engine.Engine) error {
			return e.AddPlayerToTeam(req.UserID, chi.URLParam(r, "team"))
		}))

		r.Delete("/teams/{team}/players/{userID}", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.RemovePlayerFromTeam(chi.URLParam(r, "userID"), chi.URLParam(r, "team"))
		}))

		r.Post("/balancing", mutateJSON(svc, func(req balancingRequest, r *http.Request, e *engine.Engine) error {
			return e.SetBalancing(req.On)
		}))

		r.Post("/start", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.StartTournament(r.URL.Query().Get("resume") == "true")
		}))

		r.Post("/stop", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.StopTournament()
		}))

		r.Post("/pause", mutate(svc, func(r *http.Request, e *engine.Engine) error {
			return e.TogglePause()
		}))

		r.Route("/brackets/{idx}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				idx, err := bracketIndex(r)
				if err != nil {
					httputil.BadRequest(w, "Invalid bracket index", err)
					return
				}
				var view bracketView
				err = svc.View(chi.URLParam(r, "id"), func(e *engine.Engine) error {
					b, err := e.Bracket(idx)
					if err != nil {
						return err
					}
					view = bracketView{Kind: b.Kind(), Done: b.IsDone(), Matches: b.Matches()}
					view.Upcoming, err = e.MatchesToPlay(idx)
					return err
				})
				if err != nil {
					httputil.Error(w, err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, view)
			})

			r.Get("/results", func(w http.ResponseWriter, r *http.Request) {
				idx, err := bracketIndex(r)
				if err != nil {
					httputil.BadRequest(w, "Invalid bracket index", err)
					return
				}
				results, err := svc.Results(chi.URLParam(r, "id"), idx)
				if err != nil {
					httputil.Error(w, err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, results)
			})

			r.Post("/score", func(w http.ResponseWriter, r *http.Request) {
				idx, err := bracketIndex(r)
				if err != nil {
					httputil.BadRequest(w, "Invalid bracket index", err)
					return
				}
				var req scoreRequest
				if err := decode(r, &req); err != nil {
					httputil.BadRequest(w, "Invalid request body", err)
					return
				}
				id := chi.URLParam(r, "id")
				if err := svc.Score(r.Context(), id, idx, req.Match, req.Opponent, req.Score); err != nil {
					httputil.Error(w, err)
					return
				}
				snapshot, err := svc.Get(id)
				if err != nil {
					httputil.Error(w, err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, snapshot)
			})
		})
	})

	return r
}
