package cmd

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lightcuts/bitonic"
	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/renderer"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
)

// Prefix for environment overrides, e.g. LIGHTCUTS_CUT_ERRORLIMIT.
const envPrefix = "LIGHTCUTS"

// Config mirrors renderer.Options in a form that viper can read from a config
// file or the environment.
type Config struct {
	Frame  FrameConfig  `mapstructure:"frame"`
	Tree   TreeConfig   `mapstructure:"tree"`
	Cut    CutConfig    `mapstructure:"cut"`
	Device DeviceConfig `mapstructure:"device"`
}

type FrameConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type TreeConfig struct {
	CodeBits     int    `mapstructure:"codeBits"`
	KeyWidth     int    `mapstructure:"keyWidth"`
	Descending   bool   `mapstructure:"descending"`
	WorkBudget   int    `mapstructure:"workBudget"`
	HostSort     bool   `mapstructure:"hostSort"`
	BufferPolicy string `mapstructure:"bufferPolicy"`
}

type CutConfig struct {
	ErrorLimit       float64 `mapstructure:"errorLimit"`
	SamplesPerPixel  int     `mapstructure:"samplesPerPixel"`
	MinDistanceRatio float64 `mapstructure:"minDistanceRatio"`
	Seed             uint64  `mapstructure:"seed"`
}

type DeviceConfig struct {
	Blacklist []string `mapstructure:"blacklist"`
	Force     string   `mapstructure:"force"`
}

// A cli flag that overrides a config key when set.
type flagBinding struct {
	flag  string
	key   string
	value func(ctx *cli.Context, flag string) interface{}
}

func intFlag(ctx *cli.Context, flag string) interface{} { return ctx.Int(flag) }
func floatFlag(ctx *cli.Context, flag string) interface{} { return ctx.Float64(flag) }
func boolFlag(ctx *cli.Context, flag string) interface{} { return ctx.Bool(flag) }
func stringFlag(ctx *cli.Context, flag string) interface{} { return ctx.String(flag) }
func sliceFlag(ctx *cli.Context, flag string) interface{} { return ctx.StringSlice(flag) }
func uintFlag(ctx *cli.Context, flag string) interface{} { return ctx.Uint64(flag) }

var flagBindings = []flagBinding{
	{"width", "frame.width", intFlag},
	{"height", "frame.height", intFlag},
	{"code-bits", "tree.codeBits", intFlag},
	{"key-width", "tree.keyWidth", intFlag},
	{"descending", "tree.descending", boolFlag},
	{"work-budget", "tree.workBudget", intFlag},
	{"host-sort", "tree.hostSort", boolFlag},
	{"buffer-policy", "tree.bufferPolicy", stringFlag},
	{"error-limit", "cut.errorLimit", floatFlag},
	{"spp", "cut.samplesPerPixel", intFlag},
	{"min-distance-ratio", "cut.minDistanceRatio", floatFlag},
	{"seed", "cut.seed", uintFlag},
	{"blacklist", "device.blacklist", sliceFlag},
	{"force-device", "device.force", stringFlag},
}

func setDefaults(v *viper.Viper) {
	opts := renderer.DefaultOptions()

	v.SetDefault("frame.width", int(opts.FrameW))
	v.SetDefault("frame.height", int(opts.FrameH))
	v.SetDefault("tree.codeBits", int(opts.CodeBits))
	v.SetDefault("tree.keyWidth", int(opts.KeyWidth))
	v.SetDefault("tree.descending", opts.Descending)
	v.SetDefault("tree.workBudget", opts.WorkBudget)
	v.SetDefault("tree.hostSort", opts.HostSort)
	v.SetDefault("tree.bufferPolicy", opts.BufferPolicy.String())
	v.SetDefault("cut.errorLimit", float64(opts.ErrorLimit))
	v.SetDefault("cut.samplesPerPixel", int(opts.SamplesPerPixel))
	v.SetDefault("cut.minDistanceRatio", float64(opts.MinDistanceRatio))
	v.SetDefault("cut.seed", opts.Seed)
	v.SetDefault("device.blacklist", []string{})
	v.SetDefault("device.force", "")
}

// Load the config for a command invocation. Flags that were explicitly set
// override every other source.
func loadConfig(ctx *cli.Context) (*Config, error) {
	overrides := make(map[string]interface{})
	for _, binding := range flagBindings {
		if ctx.IsSet(binding.flag) {
			overrides[binding.key] = binding.value(ctx, binding.flag)
		}
	}
	return readConfig(ctx.GlobalString("config"), overrides)
}

// Read the config by layering, from lowest to highest precedence, the
// defaults, the optional config file, LIGHTCUTS_* env vars and overrides.
func readConfig(configFile string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %q: %w", configFile, err)
		}
		logger.Noticef("loaded config from %s", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Convert the config to renderer options.
func (cfg *Config) Options() (renderer.Options, error) {
	keyWidth, err := bitonic.ParseKeyWidth(cfg.Tree.KeyWidth)
	if err != nil {
		return renderer.Options{}, err
	}
	policy, err := device.ParseAllocPolicy(cfg.Tree.BufferPolicy)
	if err != nil {
		return renderer.Options{}, err
	}
	if cfg.Frame.Width <= 0 || cfg.Frame.Height <= 0 {
		return renderer.Options{}, fmt.Errorf("invalid frame dimensions %dx%d", cfg.Frame.Width, cfg.Frame.Height)
	}
	if cfg.Tree.CodeBits <= 0 {
		return renderer.Options{}, fmt.Errorf("invalid code bits %d", cfg.Tree.CodeBits)
	}
	if cfg.Cut.SamplesPerPixel < 0 {
		return renderer.Options{}, fmt.Errorf("invalid samples per pixel %d", cfg.Cut.SamplesPerPixel)
	}

	return renderer.Options{
		FrameW:             uint32(cfg.Frame.Width),
		FrameH:             uint32(cfg.Frame.Height),
		CodeBits:           uint(cfg.Tree.CodeBits),
		KeyWidth:           keyWidth,
		Descending:         cfg.Tree.Descending,
		WorkBudget:         cfg.Tree.WorkBudget,
		ErrorLimit:         float32(cfg.Cut.ErrorLimit),
		SamplesPerPixel:    uint32(cfg.Cut.SamplesPerPixel),
		MinDistanceRatio:   float32(cfg.Cut.MinDistanceRatio),
		HostSort:           cfg.Tree.HostSort,
		Seed:               cfg.Cut.Seed,
		BufferPolicy:       policy,
		BlackListedDevices: cfg.Device.Blacklist,
		ForceDevice:        cfg.Device.Force,
	}, nil
}
