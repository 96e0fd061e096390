package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via PSE_DEBUG in the environment
	Debug bool
	// Set via PSE_MAX_WALKERS in the environment
	MaxWalkers int
	// Set via PSE_MAX_RESAMPLES in the environment
	MaxResamples int
	// Set via PSE_NO_FASTFORWARD in the environment
	NoFastForward bool
	// Set via PSE_MASK_PARALLEL in the environment
	MaskParallel int
	// Set via PSE_MASK_CACHE in the environment
	MaskCache int
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"PSE_DEBUG":          {"PSE_DEBUG", Debug, "Show additional debug information (e.g. PSE_DEBUG=1)"},
		"PSE_MAX_WALKERS":    {"PSE_MAX_WALKERS", MaxWalkers, "Maximum number of live walkers per step (default 64)"},
		"PSE_MAX_RESAMPLES":  {"PSE_MAX_RESAMPLES", MaxResamples, "Resample attempts before a step is fatal (default 8)"},
		"PSE_NO_FASTFORWARD": {"PSE_NO_FASTFORWARD", NoFastForward, "Disable multi-token fast-forward"},
		"PSE_MASK_PARALLEL":  {"PSE_MASK_PARALLEL", MaskParallel, "Goroutines used to validate candidate tokens (default 1)"},
		"PSE_MASK_CACHE":     {"PSE_MASK_CACHE", MaskCache, "Token mask cache entries (default 1024, 0 disables)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	// default values
	MaxWalkers = 64
	MaxResamples = 8
	MaskParallel = 1
	MaskCache = 1024

	LoadConfig()
}

func LoadConfig() {
	if debug := clean("PSE_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	if noff := clean("PSE_NO_FASTFORWARD"); noff != "" {
		d, err := strconv.ParseBool(noff)
		if err == nil {
			NoFastForward = d
		}
	}

	if mw := clean("PSE_MAX_WALKERS"); mw != "" {
		if n, err := strconv.Atoi(mw); err == nil && n > 0 {
			MaxWalkers = n
		}
	}

	if mr := clean("PSE_MAX_RESAMPLES"); mr != "" {
		if n, err := strconv.Atoi(mr); err == nil && n >= 0 {
			MaxResamples = n
		}
	}

	if mp := clean("PSE_MASK_PARALLEL"); mp != "" {
		if n, err := strconv.Atoi(mp); err == nil && n > 0 {
			MaskParallel = n
		}
	}

	if mc := clean("PSE_MASK_CACHE"); mc != "" {
		if n, err := strconv.Atoi(mc); err == nil && n >= 0 {
			MaskCache = n
		}
	}
}
