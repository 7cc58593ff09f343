package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"wallpaper-catalog/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogStartup prints the banner, system information and the effective
// configuration. Long-running commands call it; batch commands log only
// at debug level.
func LogStartup(cfg *Config) {
	printBanner()
	logSystemInfo()
	LogConfig(cfg)
}

// LogConfig dumps the effective configuration.
func LogConfig(cfg *Config) {
	section("CONFIGURATION")
	logging.Info("  root:             %s", cfg.Root)
	logging.Info("  output-dir:       %s", cfg.OutputDir)
	logging.Info("  registry-path:    %s", cfg.RegistryPath)
	logging.Info("  base-url:         %s", cfg.BaseURL)
	logging.Info("  page-size:        %d", cfg.PageSize)
	logging.Info("  featured-count:   %d", cfg.FeaturedCount)
	logging.Info("  duplicate-scope:  %s (perceptual distance %d)", cfg.DuplicateScope, cfg.PerceptualDistance)
	logging.Info("  lock-timeout:     %v", cfg.LockTimeout)
	logging.Info("  limits:           min %dx%d, %s..%s, max %d pixels",
		cfg.MinWidth, cfg.MinHeight, formatBytes(cfg.MinFileSize), formatBytes(cfg.MaxFileSize), cfg.MaxPixels)
	logging.Info("  image target:     %dx%d q%d", cfg.MaxWidth, cfg.MaxHeight, cfg.JPEGQuality)
	logging.Info("  thumbnail target: %dx%d q%d", cfg.ThumbWidth, cfg.ThumbHeight, cfg.ThumbQuality)
	if cfg.MetricsTextfile != "" {
		logging.Info("  metrics-textfile: %s", cfg.MetricsTextfile)
	}
	if cfg.S3Bucket != "" {
		logging.Info("  s3:               s3://%s/%s (%s)", cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	}
	logging.Info("  log-level:        %s", logging.GetLevel())
}

// PrepareRoot makes sure the collection root exists and is writable.
// Commands that only read (serve, check) skip the write test.
func PrepareRoot(cfg *Config, writable bool) error {
	section("DIRECTORY SETUP")
	if err := ensureDirectory(cfg.Root, "collection"); err != nil {
		return fmt.Errorf("collection root error: %w", err)
	}
	if !writable {
		return nil
	}

	logging.Debug("  Testing collection root write access...")
	if err := testWriteAccess(cfg.Root); err != nil {
		return fmt.Errorf("collection root is not writable: %w", err)
	}
	logging.Info("  [OK] Collection root is writable")
	return nil
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted logs the listening address and startup duration.
func LogServerStarted(port int, startup time.Duration) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", startup)
	logging.Info("  Catalog:         http://localhost:%d/api/v1/all.json", port)
	logging.Info("  Metrics:         http://localhost:%d/metrics", port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
 _       __      ____
| |     / /___ _/ / /___  ____ _____  ___  _____
| | /| / / __ '/ / / __ \/ __ '/ __ \/ _ \/ ___/
| |/ |/ / /_/ / / / /_/ / /_/ / /_/ /  __/ /
|__/|__/\__,_/_/_/ .___/\__,_/ .___/\___/_/   catalog
                /_/         /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Info("  [OK] Created %s directory: %s", name, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
