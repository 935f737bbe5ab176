package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dms-be/internal/order"
	"dms-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var errBadID = errors.New("malformed id")

// actorFrom reads the identity stored by the auth middleware.
func actorFrom(ctx context.Context) (order.Actor, bool) {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return order.Actor{}, false
	}
	return order.Actor{ID: id, Role: utils.GetUserRoleFromContext(ctx)}, true
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
