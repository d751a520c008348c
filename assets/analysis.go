package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/voltlane/voltlane"
)

var ErrInvalidBucketSize = errors.New("bucket size must be greater than zero")

// Analysis describes a decoded audio source and its waveform overview.
type Analysis struct {
	SourcePath      string                 `json:"source_path"`
	SampleRate      uint32                 `json:"sample_rate"`
	Channels        uint16                 `json:"channels"`
	TotalFrames     uint64                 `json:"total_frames"`
	DurationSeconds float64                `json:"duration_seconds"`
	Peaks           voltlane.WaveformPeaks `json:"peaks"`
	CachePath       string                 `json:"cache_path,omitempty"`
}

// Peaks returns the maximum absolute sample of each bucket; the last bucket
// may be partial.
func Peaks(samples []float32, bucketSize int) []float32 {
	if bucketSize <= 0 {
		return nil
	}
	ret := make([]float32, 0, (len(samples)+bucketSize-1)/bucketSize)
	for start := 0; start < len(samples); start += bucketSize {
		var peak float32
		for _, s := range samples[start:min(start+bucketSize, len(samples))] {
			peak = max(peak, float32(math.Abs(float64(s))))
		}
		ret = append(ret, peak)
	}
	return ret
}

func Analyze(path string, bucketSize int) (Analysis, error) {
	if bucketSize <= 0 {
		return Analysis{}, ErrInvalidBucketSize
	}
	decoded, err := Decode(path)
	if err != nil {
		return Analysis{}, err
	}
	ret := Analysis{
		SourcePath:  path,
		SampleRate:  decoded.SampleRate,
		Channels:    decoded.Channels,
		TotalFrames: uint64(len(decoded.Samples)),
		Peaks:       voltlane.WaveformPeaks{BucketSize: bucketSize, Peaks: Peaks(decoded.Samples, bucketSize)},
	}
	if decoded.SampleRate > 0 {
		ret.DurationSeconds = float64(len(decoded.Samples)) / float64(decoded.SampleRate)
	}
	return ret, nil
}

// AnalyzeWithCache is Analyze backed by a json cache in cacheDir, keyed by the
// path, size and modification time of the source. A cached analysis with a
// different bucket size is regenerated.
func AnalyzeWithCache(path, cacheDir string, bucketSize int, logger *slog.Logger) (Analysis, error) {
	if bucketSize <= 0 {
		return Analysis{}, ErrInvalidBucketSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Analysis{}, fmt.Errorf("could not create audio cache dir %v: %w", cacheDir, err)
	}
	hash, err := assetHash(path)
	if err != nil {
		return Analysis{}, err
	}
	cachePath := filepath.Join(cacheDir, hash+".peaks.json")
	if b, err := os.ReadFile(cachePath); err == nil {
		var cached Analysis
		switch err := json.Unmarshal(b, &cached); {
		case err != nil:
			logger.Warn("waveform cache parse failed, regenerating", "path", cachePath, "error", err)
		case cached.Peaks.BucketSize != bucketSize:
			logger.Warn("waveform cache bucket size mismatch, regenerating", "path", cachePath,
				"cached", cached.Peaks.BucketSize, "requested", bucketSize)
		default:
			cached.CachePath = cachePath
			logger.Debug("waveform cache hit", "path", cachePath)
			return cached, nil
		}
	}
	analysis, err := Analyze(path, bucketSize)
	if err != nil {
		return Analysis{}, err
	}
	analysis.CachePath = cachePath
	b, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return Analysis{}, fmt.Errorf("could not encode analysis json: %w", err)
	}
	if err := os.WriteFile(cachePath, b, 0o644); err != nil {
		return Analysis{}, fmt.Errorf("could not write audio cache %v: %w", cachePath, err)
	}
	return analysis, nil
}

func assetHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("could not stat audio file %v: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:]), nil
}
