// Package example implements the employees service: a rate is taken from the path and applied to an employee
// decoded from the request body.
package example

import (
	"context"
	"encoding/json"

	"github.com/advdv/bfilter"
	"github.com/advdv/bfilter/bserve"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Env is the environment of the employees service.
type Env struct {
	bserve.BaseEnvironment
	MaxRate uint32 `env:"EMPLOYEES_MAX_RATE" envDefault:"100"`
}

// Employee is the body the service accepts and replies with.
type Employee struct {
	Name string `json:"name" yaml:"name"`
	Rate uint32 `json:"rate" yaml:"rate"`
}

// Handlers serve the employees routes.
type Handlers struct {
	rt *bserve.Runtime[Env]
}

// NewHandlers inits the handlers.
func NewHandlers(rt *bserve.Runtime[Env]) *Handlers {
	return &Handlers{rt: rt}
}

// Routes registers the employees routes on the mux.
func Routes(m *bserve.Mux, h *Handlers) {
	m.MountBare("POST /employees", bfilter.Wrap(h.Promote(), AccessLog()))
	m.MountBare("POST /employees.yaml", bfilter.Wrap(h.PromoteYAML(), AccessLog()))
	m.Mount("POST /names", h.Name())
}

// Promote overrides the rate of a JSON employee with the rate from the path and replies with the employee as JSON.
func (h *Handlers) Promote() bfilter.FilterHandler {
	return bfilter.Handle2(ratePath().Chain(bfilter.JSON[Employee]()), h.promote)
}

// PromoteYAML is [Handlers.Promote] for YAML bodies.
func (h *Handlers) PromoteYAML() bfilter.FilterHandler {
	return bfilter.Handle2(ratePath().Chain(bfilter.YAML[Employee]()),
		func(_ context.Context, w bfilter.ResponseWriter, rate uint32, emp Employee) error {
			if err := h.checkRate(rate); err != nil {
				return err
			}

			emp.Rate = rate
			w.Header().Set("Content-Type", "application/yaml")
			return yaml.NewEncoder(w).Encode(emp)
		})
}

// Name replies with just the name field of a JSON employee.
func (h *Handlers) Name() bfilter.FilterHandler {
	name := bfilter.Map1(bfilter.End().Chain(bfilter.JSONPath("name")), gjson.Result.String)

	return bfilter.Handle1(name, func(_ context.Context, w bfilter.ResponseWriter, name string) error {
		_, err := w.Write([]byte(name))
		return err
	})
}

func (h *Handlers) promote(ctx context.Context, w bfilter.ResponseWriter, rate uint32, emp Employee) error {
	if err := h.checkRate(rate); err != nil {
		return err
	}

	bserve.Log(ctx).Info("promoting employee", zap.String("name", emp.Name), zap.Uint32("rate", rate))

	emp.Rate = rate
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(emp)
}

func (h *Handlers) checkRate(rate uint32) error {
	if maxRate := h.rt.Env().MaxRate; rate > maxRate {
		return bfilter.Reject(bfilter.KindInvalidParam, errors.Newf("rate %d exceeds maximum of %d", rate, maxRate))
	}
	return nil
}

// ratePath extracts the rate from the remainder of the path and requires nothing to follow it.
func ratePath() bfilter.Filter {
	return bfilter.Param[uint32]().Chain(bfilter.End())
}
