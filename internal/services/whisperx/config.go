package whisperx

import "strings"

// Config holds the WhisperX runtime settings taken from [transcription].
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; pyannote needs HFToken.
	VADMethod    string
	HFToken      string
	UVXBinary    string
	FFmpegBinary string
}

// DefaultModel balances accuracy and CPU time for clips under two minutes.
const DefaultModel = "large-v3"

// VAD methods and devices accepted by the whisperx CLI.
const (
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
)

// Reels are short, so small batches and chunks keep CPU runs responsive.
const (
	batchSize      = "4"
	chunkSize      = "10"
	beamSize       = "5"
	temperature    = "0.0"
	cpuComputeType = "float32"
	cudaIndexURL   = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL   = "https://pypi.org/simple"
)

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if strings.TrimSpace(c.VADMethod) == "" {
		c.VADMethod = VADMethodSilero
	}
	if strings.TrimSpace(c.UVXBinary) == "" {
		c.UVXBinary = "uvx"
	}
	if strings.TrimSpace(c.FFmpegBinary) == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	return c
}
