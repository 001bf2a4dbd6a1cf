package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/pkg/logger"
)

// tournamentRequest mirrors the OpenAPI schema for tournament snapshots.
// Formula is kept raw so a missing identifier can take the server default and
// an unknown one can be reported.
type tournamentRequest struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	EventType  model.EventType        `json:"event_type"`
	Formula    *string                `json:"formula"`
	Status     model.TournamentStatus `json:"status"`
	CreatedAt  *time.Time             `json:"created_at"`
	Categories []model.WeightCategory `json:"categories"`
	Athletes   []model.Athlete        `json:"athletes"`
}

type decoder struct {
	maxBytes       int64
	defaultFormula func() model.Formula
	log            logger.Logger
}

// tournament reads a snapshot from the request body.
func (d decoder) tournament(w http.ResponseWriter, r *http.Request) (model.Tournament, error) {
	r.Body = http.MaxBytesReader(w, r.Body, d.maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req tournamentRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Tournament{}, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return model.Tournament{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.Tournament{}, fmt.Errorf("%w: body must hold a single JSON object", ErrBadRequest)
	}

	t := model.Tournament{
		ID:         req.ID,
		Name:       req.Name,
		EventType:  req.EventType,
		Formula:    d.formula(r.Context(), req.Formula),
		Status:     req.Status,
		Categories: req.Categories,
		Athletes:   req.Athletes,
	}
	if req.CreatedAt != nil {
		t.CreatedAt = req.CreatedAt.UTC()
	}
	return t, nil
}

// formula resolves a raw identifier. Absent means the server default;
// unknown identifiers fall back to the plain total with a warning.
func (d decoder) formula(ctx context.Context, raw *string) model.Formula {
	if raw == nil || *raw == "" {
		return d.defaultFormula()
	}
	f, ok := model.ParseFormula(*raw)
	if !ok {
		d.log.Warn(ctx, "unknown formula, ranking by total",
			logger.String("formula", *raw),
		)
	}
	return f
}

// queryFormula reads ?formula=. A nil result keeps the tournament's own.
func (d decoder) queryFormula(r *http.Request) *model.Formula {
	q := r.URL.Query()
	if !q.Has("formula") {
		return nil
	}
	raw := q.Get("formula")
	f := d.formula(r.Context(), &raw)
	return &f
}
