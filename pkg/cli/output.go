package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/goerr/v2"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	noRecommendations = "no recommendations available"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	}
	return goerr.New("unsupported output format",
		goerr.V("format", format),
		goerr.V("supported", []string{formatTable, formatJSON}))
}

// renderResponse prints the recommendations in the requested format
func renderResponse(w io.Writer, format string, resp *recommend.Response) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return goerr.Wrap(err, "failed to encode response")
		}
		return nil
	}

	if len(resp.Movies) == 0 {
		fmt.Fprintln(w, noRecommendations)
		return nil
	}

	for i, m := range resp.Movies {
		year := "----"
		if y := m.Year(); y > 0 {
			year = fmt.Sprintf("%d", y)
		}
		lang := strings.ToUpper(m.Language)
		if lang == "" {
			lang = "--"
		}
		fmt.Fprintf(w, "%2d. %s (%s)\t★ %.1f\t%s\tid=%d\n", i+1, m.Title, year, m.Rating, lang, m.ID)
	}

	status := ""
	if resp.Partial {
		status = " (partial, timed out)"
	}
	fmt.Fprintf(w, "\n%d movies, session %s%s\n", len(resp.Movies), resp.SessionID, status)
	return nil
}

// exportKey is the object key of an exported response
func exportKey(prefix string, resp *recommend.Response) string {
	return path.Join(prefix, resp.CreatedAt.UTC().Format(time.DateOnly), string(resp.ID)+".json")
}

// exportResponse writes the response to storage and returns its key
func exportResponse(ctx context.Context, storage adapter.Storage, prefix string, resp *recommend.Response) (string, error) {
	key := exportKey(prefix, resp)
	if err := adapter.WriteJSON(ctx, storage, key, resp); err != nil {
		return "", goerr.Wrap(err, "failed to export recommendations", goerr.V("key", key))
	}
	return key, nil
}

// startSpinner shows progress on w until the returned function is called
func startSpinner(w io.Writer, message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}
