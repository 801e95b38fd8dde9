package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wesleyorama2/zkbench/internal/config"
)

// Variant is one configuration of the coordination service under test.
type Variant struct {
	Digest      bool   `json:"digest"`
	Algorithm   string `json:"algorithm,omitempty"`
	Predictive  bool   `json:"predictive"`
	RequestSize int    `json:"requestSize"`
}

// Label names the variant and its collected artifact.
func (v Variant) Label() string {
	if !v.Digest {
		return fmt.Sprintf("NA_%dKiB", v.RequestSize)
	}
	return fmt.Sprintf("%s_PD-%s_%dKiB", v.Algorithm, pythonBool(v.Predictive), v.RequestSize)
}

// Options returns the interpreter flags selecting the variant.
func (v Variant) Options() []string {
	if !v.Digest {
		return []string{"-Dzookeeper.digest.enabled=false"}
	}
	return []string{
		"-Dzookeeper.digest.enabled=true",
		"-Dzookeeper.digest.algorithm=" + v.Algorithm,
		"-Dzookeeper.predictive.digest=" + strconv.FormatBool(v.Predictive),
	}
}

// pythonBool capitalizes a bool the way existing result sets are labeled.
func pythonBool(b bool) string {
	s := strconv.FormatBool(b)
	return strings.ToUpper(s[:1]) + s[1:]
}

// DigestMatrix enumerates digest variants, predictive flag outermost, then
// request size, then algorithm.
func DigestMatrix(algorithms []string, predictive []bool, sizes []int) []Variant {
	variants := make([]Variant, 0, len(algorithms)*len(predictive)*len(sizes))
	for _, pd := range predictive {
		for _, sz := range sizes {
			for _, algo := range algorithms {
				variants = append(variants, Variant{
					Digest:      true,
					Algorithm:   algo,
					Predictive:  pd,
					RequestSize: sz,
				})
			}
		}
	}
	return variants
}

// NoDigestMatrix enumerates one digest-free variant per request size.
func NoDigestMatrix(sizes []int) []Variant {
	variants := make([]Variant, 0, len(sizes))
	for _, sz := range sizes {
		variants = append(variants, Variant{RequestSize: sz})
	}
	return variants
}

// Matrix returns the variants selected by the matrix mode. In "all" mode the
// digest-free baselines run first.
func Matrix(m config.MatrixConfig) []Variant {
	switch strings.ToLower(m.Mode) {
	case config.MatrixNoDigest:
		return NoDigestMatrix(m.RequestSizes)
	case config.MatrixAll:
		return append(NoDigestMatrix(m.RequestSizes), DigestMatrix(m.Algorithms, m.Predictive, m.RequestSizes)...)
	default:
		return DigestMatrix(m.Algorithms, m.Predictive, m.RequestSizes)
	}
}
