package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/johnrirwin/bizregistry/internal/app"
	"github.com/johnrirwin/bizregistry/internal/config"
	"github.com/johnrirwin/bizregistry/internal/images"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/notify"
	"github.com/johnrirwin/bizregistry/internal/submission"
)

const usage = `usage: bizctl [flags] <command> [command flags]

commands:
  show            -id N [-status S]
  edit            -id N [-status S] [-set field=value]... [-coords "lat, lng"] [-logo file] [-carousel file]...
  delete-request  -id N -reason R -justification J
  list            [-category C] [-page P] [-size S]
  promotions      -business N
  check-image     -slot logo|carousel|promotion file...
`

type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cfg := config.Load()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	a, err := app.New(ctx, cfg, notify.NewConsole(os.Stderr), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	a.StartMetrics()

	err = run(ctx, a, args[0], args[1:])

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = a.Shutdown(shutdownCtx)

	if err != nil {
		a.Logger.Error("Command failed", logging.WithFields(map[string]interface{}{
			"command": args[0],
			"error":   err.Error(),
		}))
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "show":
		return runShow(ctx, a, args)
	case "edit":
		return runEdit(ctx, a, args)
	case "delete-request":
		return runDeleteRequest(ctx, a, args)
	case "list":
		return runList(ctx, a, args)
	case "promotions":
		return runPromotions(ctx, a, args)
	case "check-image":
		return runCheckImage(ctx, a, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runShow(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.Int64("id", 0, "business id")
	status := fs.String("status", "", "status hint until the record loads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.Workflow.Open(ctx, *id, *status)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("Status:   %s (%s)\n", sess.Status(), sess.State())
	fmt.Printf("Submits:  %s\n", submission.ShapeFor(sess.Status()))
	if rec := sess.Record(); rec != nil && rec.RejectionReason != "" {
		fmt.Printf("Rejected: %s\n", rec.RejectionReason)
	}
	fmt.Printf("Editable: %s\n", strings.Join(fieldNames(sess.EditableFields().Names()), ", "))
	return printJSON(sess.Form())
}

func runEdit(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.Int64("id", 0, "business id")
	status := fs.String("status", "", "status hint until the record loads")
	coords := fs.String("coords", "", `coordinates as "lat, lng"`)
	logo := fs.String("logo", "", "logo image file")
	var sets, carousel multiFlag
	fs.Var(&sets, "set", "field=value (repeatable)")
	fs.Var(&carousel, "carousel", "carousel image file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.Workflow.Open(ctx, *id, *status)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, kv := range sets {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("-set %q: expected field=value", kv)
		}
		if err := sess.Set(models.FieldName(strings.TrimSpace(field)), value); err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
	}
	if *coords != "" {
		if err := sess.SetCoordinatesText(*coords); err != nil {
			return err
		}
	}

	if *logo != "" {
		files, err := readImages(*logo)
		if err != nil {
			return err
		}
		if _, err := sess.AddFiles(ctx, images.SlotLogo, files); err != nil {
			return err
		}
	}
	if len(carousel) > 0 {
		files, err := readImages(carousel...)
		if err != nil {
			return err
		}
		if _, err := sess.AddFiles(ctx, images.SlotCarousel, files); err != nil {
			return err
		}
	}

	return sess.Submit(ctx)
}

func runDeleteRequest(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete-request", flag.ContinueOnError)
	id := fs.Int64("id", 0, "business id")
	reason := fs.String("reason", "", "reason for deletion")
	justification := fs.String("justification", "", "justification")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.Workflow.RequestDeletion(ctx, *id, *reason, *justification)
}

func runList(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	category := fs.String("category", "", "category filter")
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.Workflow.ListMine(ctx, *category, *page, *size)
	if err != nil {
		return err
	}
	for _, b := range result.Content {
		fmt.Printf("%-6d %-12s %s\n", b.ID, a.Workflow.Classify(b.ValidationStatus), b.CommercialName)
	}
	fmt.Printf("page %d of %d, %d total\n", result.Number+1, result.TotalPages, result.TotalElements)
	return nil
}

func runPromotions(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("promotions", flag.ContinueOnError)
	businessID := fs.Int64("business", 0, "business id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	promos, err := a.Promotions.List(ctx, *businessID)
	if err != nil {
		return err
	}
	return printJSON(promos)
}

func runCheckImage(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("check-image", flag.ContinueOnError)
	slot := fs.String("slot", string(images.SlotCarousel), "logo, carousel or promotion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("check-image: no files given")
	}

	files, err := readImages(fs.Args()...)
	if err != nil {
		return err
	}

	rejected := 0
	for _, res := range a.Pipeline.ValidateBatch(ctx, images.Slot(*slot), files) {
		if res.Accepted() {
			fmt.Printf("ok    %s (%s, %dx%d)\n", res.File.Name, res.ContentType, res.Width, res.Height)
			if s := res.Screening; s != nil && s.Verdict == models.VerdictUnscreened {
				fmt.Printf("      %s\n", s.Note)
			}
			continue
		}
		rejected++
		fmt.Printf("FAIL  %s\n", res.Message(a.Pipeline.Limits()))
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d images rejected", rejected, len(files))
	}
	return nil
}

func readImages(paths ...string) ([]models.ImageFile, error) {
	files := make([]models.ImageFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		files = append(files, models.ImageFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func fieldNames(fields []models.FieldName) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
