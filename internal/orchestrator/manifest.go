package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/zkbench/internal/metrics"
)

// ManifestName is the file name of the manifest inside the results directory.
const ManifestName = "manifest.json"

// RunRecord describes one executed variant.
type RunRecord struct {
	Label     string        `json:"label"`
	Variant   Variant       `json:"variant"`
	Artifact  string        `json:"artifact,omitempty"`
	Collected bool          `json:"collected"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Manifest lists every variant run into a results directory.
type Manifest struct {
	Started  time.Time         `json:"started"`
	Finished time.Time         `json:"finished,omitempty"`
	Runs     []RunRecord       `json:"runs"`
	Metrics  *metrics.Snapshot `json:"metrics,omitempty"`
}

// Record adds r, replacing an earlier record with the same label.
func (m *Manifest) Record(r RunRecord) {
	for i := range m.Runs {
		if m.Runs[i].Label == r.Label {
			m.Runs[i] = r
			return
		}
	}
	m.Runs = append(m.Runs, r)
}

// Collected returns the number of runs whose artifact was downloaded.
func (m *Manifest) Collected() int {
	n := 0
	for _, r := range m.Runs {
		if r.Collected {
			n++
		}
	}
	return n
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestName)
}

// Save writes the manifest into dir, replacing the previous one atomically.
func (m *Manifest) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create results directory")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	tmp := ManifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}
	return errors.Wrap(os.Rename(tmp, ManifestPath(dir)), "replace manifest")
}

// ReadManifest loads the manifest in dir. A missing manifest yields an empty one.
func ReadManifest(dir string) (*Manifest, []byte, error) {
	data, err := os.ReadFile(ManifestPath(dir))
	if os.IsNotExist(err) {
		return &Manifest{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, errors.Wrapf(err, "parse manifest %s", ManifestPath(dir))
	}
	return &m, data, nil
}

// CollectedLabels returns the labels of runs whose artifact was downloaded.
func CollectedLabels(manifest []byte) map[string]bool {
	labels := make(map[string]bool)
	if len(manifest) == 0 || !gjson.ValidBytes(manifest) {
		return labels
	}
	for _, label := range gjson.GetBytes(manifest, "runs.#(collected==true)#.label").Array() {
		labels[label.String()] = true
	}
	return labels
}
