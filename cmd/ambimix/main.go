package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/gotracker/ambimix"
	"github.com/gotracker/ambimix/internal/config"
)

// Layer controls used when a -layer value leaves them out
const (
	defaultLayerVolume = 50
	defaultLayerWarmth = 50
)

// layerFlags collects repeated -layer pack=path[,volume[,warmth]] values
type layerFlags []string

func (l *layerFlags) String() string {
	return strings.Join(*l, " ")
}

func (l *layerFlags) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// fileResolver reads assets from a directory
type fileResolver struct {
	dir string
}

func (r fileResolver) Resolve(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := url
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, path)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ambimix.ErrAssetNotFound, url)
	}
	return data, err
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s render|preview|packs [flags]\n", filepath.Base(os.Args[0]))
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "render":
		err = render(ctx, cfg, os.Args[2:])
	case "preview":
		err = preview(ctx, cfg, os.Args[2:])
	case "packs":
		listPacks(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%s failed (%s): %v", os.Args[1], ambimix.Classify(err), err)
	}
}

type requestFlags struct {
	main     string
	duration float64
	pro      bool
	layers   layerFlags
}

func (r *requestFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.main, "main", "", "main track file")
	fs.Float64Var(&r.duration, "duration", 0, "target duration in seconds (default: main track length)")
	fs.BoolVar(&r.pro, "pro", false, "allow pro ambience packs")
	fs.Var(&r.layers, "layer", "ambience layer as pack=file[,volume[,warmth]]; repeatable")
}

func (r *requestFlags) request() (ambimix.MixRequest, error) {
	req := ambimix.MixRequest{
		MainTrack:             ambimix.AudioAssetRef{URL: r.main},
		TargetDurationSeconds: r.duration,
		Entitlement:           ambimix.EntitlementFree,
	}
	if r.pro {
		req.Entitlement = ambimix.EntitlementPro
	}
	for i, v := range r.layers {
		spec, err := parseLayer(fmt.Sprintf("layer%d", i+1), v)
		if err != nil {
			return req, err
		}
		req.Layers = append(req.Layers, spec)
	}
	return req, nil
}

func parseLayer(id, v string) (ambimix.LayerSpec, error) {
	packID, rest, ok := strings.Cut(v, "=")
	if !ok {
		return ambimix.LayerSpec{}, errors.Errorf("layer %q: want pack=file[,volume[,warmth]]", v)
	}
	pack, ok := ambimix.PackByID(packID)
	if !ok {
		return ambimix.LayerSpec{}, errors.Errorf("layer %q: unknown pack %q", v, packID)
	}
	parts := strings.Split(rest, ",")
	var volume, warmth float64 = defaultLayerVolume, defaultLayerWarmth
	if len(parts) > 1 {
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return ambimix.LayerSpec{}, errors.Wrapf(err, "layer %q volume", v)
		}
		volume = f
	}
	if len(parts) > 2 {
		f, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return ambimix.LayerSpec{}, errors.Wrapf(err, "layer %q warmth", v)
		}
		warmth = f
	}
	return ambimix.LayerFromPack(id, pack, ambimix.AudioAssetRef{URL: parts[0]}, volume, warmth), nil
}

func render(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var rf requestFlags
	rf.register(fs)
	out := fs.String("out", "", "output file (default: mix.<ext>)")
	_ = fs.Parse(args)

	req, err := rf.request()
	if err != nil {
		return err
	}
	engine := ambimix.New(fileResolver{dir: cfg.AssetDir}, cfg.Settings())
	if req.TargetDurationSeconds == 0 {
		if req.TargetDurationSeconds, err = engine.MainDuration(ctx, req); err != nil {
			return err
		}
	}

	res, err := engine.Render(ctx, req, func(ev ambimix.ProgressEvent) {
		if ev.Err == nil {
			log.Printf("progress %d%%", ev.Percent)
		}
	})
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = "mix" + extensionFor(res.MIMEType)
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return err
	}
	partial := ""
	if res.Partial {
		partial = " (partial)"
	}
	log.Printf("wrote %s: %.1fs of %s, %d bytes%s", path, res.DurationSeconds(), res.MIMEType, len(res.Data), partial)
	return nil
}

func preview(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	var rf requestFlags
	rf.register(fs)
	seconds := fs.Float64("seconds", 0, "preview window in seconds (default: the maximum allowed)")
	device := fs.String("device", cfg.PreviewDevice, fmt.Sprintf("output device %v", ambimix.DeviceNames()))
	_ = fs.Parse(args)

	req, err := rf.request()
	if err != nil {
		return err
	}
	settings := cfg.Settings()
	settings.PreviewDevice = *device
	engine := ambimix.New(fileResolver{dir: cfg.AssetDir}, settings)
	if req.TargetDurationSeconds == 0 {
		if req.TargetDurationSeconds, err = engine.MainDuration(ctx, req); err != nil {
			return err
		}
	}
	return engine.Preview(ctx, req, *seconds)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case ambimix.MIMETypeOggOpus:
		return ".opus"
	case ambimix.MIMETypeFLAC:
		return ".flac"
	default:
		return ".wav"
	}
}

func listPacks(args []string) {
	fs := flag.NewFlagSet("packs", flag.ExitOnError)
	pro := fs.Bool("pro", false, "list packs available to pro accounts")
	_ = fs.Parse(args)

	ent := ambimix.EntitlementFree
	if *pro {
		ent = ambimix.EntitlementPro
	}
	for _, p := range ambimix.SelectablePacks(ent) {
		fmt.Printf("%-14s %-16s %s\n", p.ID, p.Type, p.Description)
	}
}
