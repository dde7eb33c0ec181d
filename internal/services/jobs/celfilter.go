package jobsvc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/taxiway/internal/jobqueue"
)

// celFilter wraps a compiled CEL program. When disabled, Eval always
// returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("json", cel.DynType),
		cel.Variable("deliveries", cel.IntType),
		cel.Variable("delivered_at_ms", cel.IntType),
		cel.Variable("age_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return celFilter{}, fmt.Errorf("expression must evaluate to bool, got %s", out)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression against job at now. Evaluation errors, such
// as a missing JSON field, count as no match.
func (f celFilter) Eval(job jobqueue.Job, now time.Time) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(job.Payload, &jsonObj)

	var deliveredAt, age int64
	if job.Delivered() {
		deliveredAt = job.DeliveredAt.UnixMilli()
		age = now.Sub(job.DeliveredAt).Milliseconds()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":              int64(job.ID),
		"size":            int64(job.Size()),
		"text":            string(job.Payload),
		"json":            jsonObj,
		"deliveries":      int64(job.Deliveries),
		"delivered_at_ms": deliveredAt,
		"age_ms":          age,
		"now_ms":          now.UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
