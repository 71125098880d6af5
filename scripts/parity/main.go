// Command parity replays the analytical queries against two Gradebook deployments, typically one
// on PostgreSQL and one on SQLite loaded with the same data, and reports every response that differs.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type samples struct {
	Subjects []string `json:"subjects"`
	Teachers []string `json:"teachers"`
	Groups   []string `json:"groups"`
	Students []string `json:"students"`
}

type comparison struct {
	Target            target
	PrimaryStatus     int
	SecondaryStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	PrimaryDuration   time.Duration
	SecondaryDuration time.Duration
}

type summary struct {
	Breaking int
	Optional int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("parity", pflag.ContinueOnError)
	primary := fs.String("primary", "http://localhost:8080", "base URL of the reference deployment")
	secondary := fs.String("secondary", "http://localhost:8081", "base URL of the deployment under test")
	prefix := fs.String("prefix", "/api/v1", "API prefix on both deployments")
	targetsPath := fs.String("targets", "", "JSON targets file; defaults to every query built from /queries/samples")
	timeout := fs.Duration("timeout", 5*time.Second, "HTTP client timeout")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	client := &http.Client{Timeout: *timeout}

	var (
		targets []target
		err     error
	)
	if *targetsPath != "" {
		targets, err = loadTargets(*targetsPath)
	} else {
		targets, err = discoverTargets(client, *primary, *prefix)
	}
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}

	results := make([]comparison, 0, len(targets))
	for _, t := range targets {
		results = append(results, compareTarget(client, *primary, *secondary, t))
	}

	printReport(out, results)
	sum := summarize(results)
	fmt.Fprintf(out, "Breaking diffs: %d, Optional diffs: %d\n", sum.Breaking, sum.Optional)
	if sum.Breaking > 0 {
		return 1
	}
	return 0
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

// discoverTargets asks the primary deployment for names with data behind them and builds one
// request per analytical query.
func discoverTargets(client *http.Client, base, prefix string) ([]target, error) {
	resp, _, err := performRequest(client, base, target{Method: http.MethodGet, Path: prefix + "/queries/samples"})
	if err != nil {
		return nil, fmt.Errorf("fetch samples: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch samples: status %d", resp.StatusCode)
	}

	var envelope struct {
		Data samples `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return queryTargets(prefix, envelope.Data), nil
}

func queryTargets(prefix string, s samples) []target {
	first := func(values []string) string {
		if len(values) == 0 {
			return "missing"
		}
		return url.PathEscape(values[0])
	}
	subject, teacher, group, student := first(s.Subjects), first(s.Teachers), first(s.Groups), first(s.Students)

	paths := []string{
		"/queries/top-students",
		"/queries/overall-average",
		"/queries/subjects/" + subject + "/top-student",
		"/queries/subjects/" + subject + "/group-averages",
		"/queries/teachers/" + teacher + "/subjects",
		"/queries/teachers/" + teacher + "/average",
		"/queries/teachers/" + teacher + "/students/" + student + "/average",
		"/queries/groups/" + group + "/students",
		"/queries/groups/" + group + "/subjects/" + subject + "/grades",
		"/queries/groups/" + group + "/subjects/" + subject + "/last-lesson",
		"/queries/students/" + student + "/subjects",
		"/queries/students/" + student + "/teachers/" + teacher + "/subjects",
	}
	targets := make([]target, 0, len(paths)+1)
	for _, p := range paths {
		targets = append(targets, target{Method: http.MethodGet, Path: prefix + p, Critical: true})
	}
	targets = append(targets, target{Method: http.MethodGet, Path: prefix + "/queries/samples"})
	return targets
}

func compareTarget(client *http.Client, primaryBase, secondaryBase string, tgt target) comparison {
	comp := comparison{Target: tgt}
	primaryResp, primaryDur, primaryErr := performRequest(client, primaryBase, tgt)
	secondaryResp, secondaryDur, secondaryErr := performRequest(client, secondaryBase, tgt)
	if primaryResp != nil {
		defer primaryResp.Body.Close()
	}
	if secondaryResp != nil {
		defer secondaryResp.Body.Close()
	}
	comp.PrimaryDuration = primaryDur
	comp.SecondaryDuration = secondaryDur

	if primaryErr != nil {
		comp.Error = fmt.Errorf("primary request failed: %w", primaryErr)
		return comp
	}
	if secondaryErr != nil {
		comp.Error = fmt.Errorf("secondary request failed: %w", secondaryErr)
		return comp
	}

	comp.PrimaryStatus = primaryResp.StatusCode
	comp.SecondaryStatus = secondaryResp.StatusCode
	comp.StatusMatch = comp.PrimaryStatus == comp.SecondaryStatus

	primaryBody, err := io.ReadAll(primaryResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read primary body: %w", err)
		return comp
	}
	secondaryBody, err := io.ReadAll(secondaryResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read secondary body: %w", err)
		return comp
	}

	comp.BodyMatch = payloadsEqual(primaryBody, secondaryBody)
	return comp
}

func performRequest(client *http.Client, base string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

// payloadsEqual compares the data and error code of two response envelopes. Meta carries
// timings and cache flags and is ignored.
func payloadsEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var ae, be struct {
		Data  interface{} `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(a, &ae); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &be); err != nil {
		return false
	}
	if (ae.Error == nil) != (be.Error == nil) {
		return false
	}
	if ae.Error != nil && ae.Error.Code != be.Error.Code {
		return false
	}
	normalize(&ae.Data)
	normalize(&be.Data)
	return reflect.DeepEqual(ae.Data, be.Data)
}

// normalize rounds floats to two decimals so driver specific AVG precision does not register as a diff.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		*v = math.Round(val*100) / 100
	}
}

func summarize(results []comparison) summary {
	var sum summary
	for _, res := range results {
		switch {
		case res.Error != nil:
			if res.Target.Critical {
				sum.Breaking++
			}
		case !res.StatusMatch || !res.BodyMatch:
			if res.Target.Critical {
				sum.Breaking++
			} else {
				sum.Optional++
			}
		}
	}
	return sum
}

func printReport(out io.Writer, results []comparison) {
	fmt.Fprintln(out, "Parity Report")
	fmt.Fprintln(out, "=============")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(out, "[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Fprintf(out, "  Primary: %d (%s)\n", res.PrimaryStatus, res.PrimaryDuration)
		fmt.Fprintf(out, "  Secondary: %d (%s)\n", res.SecondaryStatus, res.SecondaryDuration)
		if res.Error != nil {
			fmt.Fprintf(out, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(out, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
