package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Query is evaluated for every resolved movie. Any message in the resulting
// set rejects the movie.
const Query = "data.cinemood.deny"

// Policy vetoes resolved movies with Rego rules. A nil *Policy allows everything.
type Policy struct {
	query *rego.PreparedEvalQuery
}

// Load reads all .rego files in dir. It returns nil without error when dir is
// empty or holds no policy files.
func Load(ctx context.Context, dir string) (*Policy, error) {
	if dir == "" {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return New(ctx, modules)
}

// New prepares a policy from in-memory modules keyed by file name
func New(ctx context.Context, modules map[string]string) (*Policy, error) {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	options := make([]func(*rego.Rego), 0, len(modules)+1)
	options = append(options, rego.Query(Query))
	for _, name := range names {
		options = append(options, rego.Module(name, modules[name]))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.V("query", Query))
	}

	return &Policy{query: &prepared}, nil
}

// Evaluate returns the deny messages produced for the movie
func (p *Policy) Evaluate(ctx context.Context, movie *model.Movie) ([]string, error) {
	if p == nil || movie == nil {
		return nil, nil
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(movie))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate policy", goerr.V("movie_id", movie.ID))
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	values, ok := rs[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, goerr.New("unexpected policy result type",
			goerr.V("movie_id", movie.ID),
			goerr.V("type", fmt.Sprintf("%T", rs[0].Expressions[0].Value)))
	}

	reasons := make([]string, 0, len(values))
	for _, v := range values {
		reasons = append(reasons, fmt.Sprint(v))
	}
	return reasons, nil
}

// Allow reports whether the movie passes the policy
func (p *Policy) Allow(ctx context.Context, movie *model.Movie) (bool, error) {
	reasons, err := p.Evaluate(ctx, movie)
	if err != nil {
		return false, err
	}
	return len(reasons) == 0, nil
}
