package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/utils"
)

// maxRequestBody caps JSON request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// CRUD defines the standard handler set for a resource. C and U are the
// create and update request types.
type CRUD[C any, U any] interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request, id bson.ObjectID)
	Create(w http.ResponseWriter, r *http.Request, data *C)
	Update(w http.ResponseWriter, r *http.Request, id bson.ObjectID, data *U)
	Delete(w http.ResponseWriter, r *http.Request, id bson.ObjectID)
}

// AddCRUDRoutes registers the standard CRUD routes on the provided router.
func AddCRUDRoutes[C any, U any](r chi.Router, handler CRUD[C, U]) {
	r.Get("/", handler.List)
	r.Get("/{id}", WithID(handler.Get))
	r.Post("/", WithBody(handler.Create))
	r.Put("/{id}", WithIDAndBody(handler.Update))
	r.Delete("/{id}", WithID(handler.Delete))
}

type HandlerFunc1[T any] func(w http.ResponseWriter, r *http.Request, data T)
type HandlerFunc2[T1 any, T2 any] func(w http.ResponseWriter, r *http.Request, data1 T1, data2 T2)

// idFromParam parses the {id} URL parameter. It writes a 400 response and
// returns the zero ID when the parameter is missing or malformed.
func idFromParam(w http.ResponseWriter, r *http.Request) bson.ObjectID {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "ID is required")
		return bson.NilObjectID
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ID format")
		return bson.NilObjectID
	}
	return oid
}

// decodeBody decodes a size-capped JSON body. It writes a 400 response and
// returns false on failure.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, data *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// WithID adapts a handler taking an ObjectID to an http.HandlerFunc.
func WithID(handler HandlerFunc1[bson.ObjectID]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := idFromParam(w, r)
		if id.IsZero() {
			return
		}
		handler(w, r, id)
	}
}

// WithBody adapts a handler taking a decoded JSON body.
func WithBody[T any](handler HandlerFunc1[*T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data T
		if !decodeBody(w, r, &data) {
			return
		}
		handler(w, r, &data)
	}
}

// WithIDAndBody adapts a handler taking both an ObjectID and a decoded body.
func WithIDAndBody[T any](handler HandlerFunc2[bson.ObjectID, *T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := idFromParam(w, r)
		if id.IsZero() {
			return
		}
		var data T
		if !decodeBody(w, r, &data) {
			return
		}
		handler(w, r, id, &data)
	}
}
