package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/quiver-seismic/quiver/internal/waveform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source describes where one body's data lives on disk. Relative paths are
// resolved against the loader's base directory.
type Source struct {
	Body        string
	CatalogFile string // training catalog; empty when the body has no labels
	TrainDir    string
	TestDir     string
}

// Loader reads every configured body into a Store.
type Loader struct {
	BaseDir string
	Workers int
	logger  *zap.SugaredLogger
}

// NewLoader creates a loader. workers <= 0 uses GOMAXPROCS.
func NewLoader(baseDir string, workers int, logger *zap.SugaredLogger) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{BaseDir: baseDir, Workers: workers, logger: logger}
}

type job struct {
	body    string
	id      string
	path    string
	split   Split
	arrival *float64
}

// Load reads the catalogs, then parses every waveform file concurrently.
// Waveform files that cannot be read are logged and skipped; an unreadable
// catalog fails the load.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Store, error) {
	var (
		bodies []string
		jobs   []job
	)
	for _, src := range sources {
		bodies = append(bodies, src.Body)

		train, err := l.trainingJobs(src)
		if err != nil {
			return nil, fmt.Errorf("loading %s catalog: %w", src.Body, err)
		}
		test, err := l.testJobs(src)
		if err != nil {
			return nil, fmt.Errorf("listing %s test data: %w", src.Body, err)
		}
		l.logger.Infof("%s: %d training and %d test waveforms to load", src.Body, len(train), len(test))
		jobs = append(jobs, train...)
		jobs = append(jobs, test...)
	}

	var (
		mu      sync.Mutex
		entries []*Entry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ch, err := readWaveformFile(j.path, j.id)
			if err != nil {
				l.logger.Warnf("error reading file %s: %v", j.path, err)
				return nil
			}
			mu.Lock()
			entries = append(entries, &Entry{
				ID:      j.id,
				Body:    j.body,
				Split:   j.split,
				Path:    j.path,
				Channel: ch,
				Arrival: j.arrival,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store, err := NewStore(bodies, l.dedupe(entries))
	if err != nil {
		return nil, err
	}
	for _, b := range store.Bodies() {
		l.logger.Infof("%s: loaded %d channels", b, store.Len(b))
	}
	return store, nil
}

// dedupe drops entries whose id is already taken within their body, keeping
// training entries over test entries.
func (l *Loader) dedupe(entries []*Entry) []*Entry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Split != entries[j].Split {
			return entries[i].Split == Train
		}
		return entries[i].Path < entries[j].Path
	})
	seen := make(map[string]bool, len(entries))
	kept := entries[:0]
	for _, e := range entries {
		key := e.Body + "/" + e.ID
		if seen[key] {
			l.logger.Warnf("%s: skipping %s, channel %s already loaded", e.Body, e.Path, e.ID)
			continue
		}
		seen[key] = true
		kept = append(kept, e)
	}
	return kept
}

func (l *Loader) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

// trainingJobs pairs each catalog row with its waveform file in TrainDir.
// When the file named in the catalog is missing, a file carrying the same
// event id is used instead.
func (l *Loader) trainingJobs(src Source) ([]job, error) {
	if src.CatalogFile == "" {
		return nil, nil
	}
	f, err := os.Open(l.resolve(src.CatalogFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadCatalog(f)
	if err != nil {
		return nil, err
	}

	dir := l.resolve(src.TrainDir)
	jobs := make([]job, 0, len(records))
	for _, rec := range records {
		stem := StemID(rec.Filename)
		path := filepath.Join(dir, stem+".csv")
		if _, err := os.Stat(path); err != nil && rec.EventID != "" {
			matches, _ := filepath.Glob(filepath.Join(dir, "*_"+rec.EventID+".csv"))
			if len(matches) == 1 {
				l.logger.Debugf("catalog file %s missing, using %s for %s", path, matches[0], rec.EventID)
				path = matches[0]
			}
		}
		arrival := rec.ArrivalRel
		jobs = append(jobs, job{
			body:    src.Body,
			id:      StemID(filepath.Base(path)),
			path:    path,
			split:   Train,
			arrival: &arrival,
		})
	}
	return jobs, nil
}

// testJobs lists every CSV file under TestDir.
func (l *Loader) testJobs(src Source) ([]job, error) {
	if src.TestDir == "" {
		return nil, nil
	}
	root := l.resolve(src.TestDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		l.logger.Warnf("%s: test directory %s does not exist", src.Body, root)
		return nil, nil
	}

	var jobs []job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".csv") {
			return nil
		}
		jobs = append(jobs, job{
			body:  src.Body,
			id:    StemID(d.Name()),
			path:  path,
			split: Test,
		})
		return nil
	})
	return jobs, err
}

func readWaveformFile(path, id string) (*waveform.Channel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWaveform(f, id)
}
