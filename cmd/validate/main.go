// Command validate checks the deployable artifacts before a release: the
// classifier model, the zone catalog, and the reports they produce together
// offline. Each phase prints PASS or FAIL with the individual findings.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -model models/flood_model.json \
//	  -zones configs/zones.yaml \
//	  -radius-km 5
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/zonefile"
	"github.com/couchcryptid/flood-risk-service/internal/classifier"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// rainfallProbe is the rainfall sweep used for the monotonicity check.
var rainfallProbe = []float64{0, 1, 2.5, 5, 10, 20, 40, 80, 150}

func main() {
	modelPath := flag.String("model", "", "classifier artifact (.json)")
	zonesPath := flag.String("zones", "", "zone catalog YAML")
	radiusKm := flag.Float64("radius-km", 5, "zone radius used for covariate lookup")
	flag.Parse()

	if *modelPath == "" || *zonesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *modelPath, *zonesPath, *radiusKm))
}

func run(out io.Writer, modelPath, zonesPath string, radiusKm float64) int {
	fmt.Fprintln(out, "=== Flood Risk Artifact Validation ===")
	fmt.Fprintln(out)

	model, err := classifier.Load(modelPath, nil)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load model: %v\n", err)
		return 1
	}
	defer model.Close()

	catalog, err := zonefile.Load(zonesPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load zones: %v\n", err)
		return 1
	}
	zones, _ := catalog.Zones(context.Background())

	phases := []*phase{
		validateModel(model, zones),
		validateZones(zones, radiusKm),
		validateReports(model, catalog, zones, radiusKm),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Model: %s, zones: %d\n", model.ModelName(), len(zones))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateModel checks that every zone profile scores to a sane result and
// that more rain never lowers the HIGH probability.
func validateModel(model domain.Classifier, zones []domain.Zone) *phase {
	p := &phase{name: "Model: scores in range, monotonic in rain"}

	profiles := []domain.Covariates{domain.DefaultCovariates}
	for _, z := range zones {
		profiles = append(profiles, z.Covariates)
	}

	for _, cov := range profiles {
		prev := -1.0
		for _, rain := range rainfallProbe {
			f := domain.SampleFeatureVector{RainfallMM: rain, Elevation: cov.Elevation, DrainageCapacity: cov.DrainageCapacity}
			res, err := model.Classify(f)
			if err != nil {
				p.errorf("classify %+v: %v", f, err)
				continue
			}
			if res.Probability < 0 || res.Probability > 100 || math.IsNaN(res.Probability) {
				p.errorf("classify %+v: probability %v out of [0,100]", f, res.Probability)
			}
			if res.Label != domain.LabelLow && res.Label != domain.LabelHigh {
				p.errorf("classify %+v: unknown label %q", f, res.Label)
			}
			if res.Probability < prev {
				p.errorf("profile %+v: probability fell from %.2f to %.2f at rain %.1f", cov, prev, res.Probability, rain)
			}
			prev = res.Probability
		}
	}
	return p
}

// validateZones checks that each zone center resolves to itself, i.e. no
// zone is shadowed by a neighbour.
func validateZones(zones []domain.Zone, radiusKm float64) *phase {
	p := &phase{name: "Zones: unique, reachable by nearest lookup"}
	if len(zones) == 0 {
		p.errorf("catalog is empty")
		return p
	}
	for _, z := range zones {
		got, ok := domain.NearestZone(zones, z.Center, radiusKm)
		switch {
		case !ok:
			p.errorf("%s: center not within %.1f km of any zone", z.Name, radiusKm)
		case got.Name != z.Name:
			p.errorf("%s: center resolves to %s", z.Name, got.Name)
		}
		if z.Covariates.Elevation == 0 && z.Covariates.DrainageCapacity == 0 {
			p.errorf("%s: covariates are all zero", z.Name)
		}
	}
	return p
}

// validateReports runs an offline CROSS5 assessment at every zone and checks
// the report shape: five entries in grid order, rounded coordinates, and
// notes that match each label.
func validateReports(model domain.Classifier, catalog domain.ZoneCatalog, zones []domain.Zone, radiusKm float64) *phase {
	p := &phase{name: "Reports: offline shape and notes"}
	if len(zones) == 0 {
		p.errorf("no zones to assess")
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	assessor := pipeline.New(pipeline.Deps{
		Locator:    pipeline.NewLocator(zones[0].Center, catalog, nil, nil, logger, metrics),
		Fetcher:    pipeline.NewFetcher(nil, time.Second, logger, metrics),
		Covariates: domain.ZoneCovariates{Catalog: catalog, RadiusKm: radiusKm, Fallback: domain.DefaultCovariates},
		Classifier: model,
		Clock:      clockwork.NewFakeClock(),
	}, pipeline.Options{Pattern: domain.PatternCross5, Offset: 0.01, FanoutLimit: 5, DefaultCovariates: domain.DefaultCovariates}, logger, metrics)

	for _, z := range zones {
		report, err := assessor.Assess(context.Background(), pipeline.Request{Query: pipeline.Query{Zone: z.Name}})
		if err != nil {
			p.errorf("%s: %v", z.Name, err)
			continue
		}
		data := report.Data()
		if len(data) != 5 {
			p.errorf("%s: %d entries, want 5", z.Name, len(data))
			continue
		}
		want, _ := domain.GenerateGrid(z.Center, 0.01, domain.PatternCross5)
		for i, e := range data {
			c := want[i].Rounded()
			if e.Lat != c.Lat || e.Lon != c.Lon {
				p.errorf("%s[%d]: got %.6f,%.6f want %.6f,%.6f", z.Name, i, e.Lat, e.Lon, c.Lat, c.Lon)
			}
			if e.RainMM != domain.FallbackRainfallMM {
				p.errorf("%s[%d]: offline rain %.2f", z.Name, i, e.RainMM)
			}
			if !slices.Equal(e.Notes, domain.Notes(e.Risk, report.Entries[i].Coordinate)) {
				p.errorf("%s[%d]: notes do not match %s", z.Name, i, e.Risk)
			}
		}
	}
	return p
}
