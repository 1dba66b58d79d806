package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/account"
	"github.com/letsgobuy/storefront/internal/api"
	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/form"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/internal/jobs"
	"github.com/letsgobuy/storefront/internal/listview"
	"github.com/letsgobuy/storefront/internal/render"
	"github.com/letsgobuy/storefront/internal/session"
)

var errUsage = errors.New("usage")

func run(ctx context.Context, d *deps, cmd string, args []string) error {
	err := dispatch(ctx, d, cmd, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func dispatch(ctx context.Context, d *deps, cmd string, args []string) error {
	switch cmd {
	case "buscar":
		return cmdSearch(ctx, d, args)
	case "bancas":
		return cmdStalls(ctx, d, args)
	case "produtos":
		return cmdProducts(ctx, d, args)
	case "fornecedores":
		return cmdSuppliers(ctx, d, args)
	case "cadastrar":
		return cmdRegisterEntity(ctx, d, args)
	case "login":
		return cmdLogin(ctx, d, args)
	case "registrar":
		return cmdSignUp(ctx, d, args)
	case "logout":
		return cmdLogout(ctx, d)
	case "whoami":
		return cmdWhoami(d, args)
	case "perfil":
		return cmdProfile(ctx, d, args)
	case "serve":
		return cmdServe(ctx, d)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		return errUsage
	}
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func optFloat(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func optDecimal(fs *pflag.FlagSet, name, v string) (*decimal.Decimal, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	dec, err := form.ParsePrice(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &dec, nil
}

// refreshed fetches a list view and reports hard failures through the snapshot only.
func refreshed(ctx context.Context, d *deps, v interface {
	Refresh(ctx context.Context) error
	DismissError()
}, dismiss bool) {
	if err := v.Refresh(ctx); err != nil {
		d.log.Debug("cli.refresh_failed", zap.Error(err))
	}
	if dismiss {
		v.DismissError()
	}
}

// ─── Lists ────────────────────────────────────────────────────────────────────

func cmdStalls(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("bancas")
	q := fs.StringP("query", "q", "", "filter by name, description or address")
	maxDist := fs.Float64("max-distance", 0, "only stalls within this many meters")
	sortKey := fs.String("sort", "", "nome | distancia")
	id := fs.String("id", "", "show one stall in detail")
	dismiss := fs.Bool("dismiss", false, "hide the load error banner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lv := listview.NewStallList(d.client.ListStalls, listview.WithLogger(d.log))
	refreshed(ctx, d, lv, *dismiss)
	lv.SetSearch(*q)
	lv.SetMaxDistance(optFloat(fs, "max-distance", *maxDist), d.origin)
	if err := lv.SetSort(listview.SortKey(*sortKey)); err != nil {
		return err
	}

	if *id != "" {
		if !lv.Select(*id) {
			return fmt.Errorf("stall %s not found", *id)
		}
		s, _ := lv.Selected()
		fmt.Print(render.StallDetail(s))
		return nil
	}
	fmt.Print(render.Stalls(lv.Snapshot()))
	return nil
}

func cmdProducts(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("produtos")
	q := fs.StringP("query", "q", "", "filter by name")
	maxPrice := fs.String("max-price", "", "only products up to this price")
	sortKey := fs.String("sort", "", "nome | preco")
	id := fs.String("id", "", "show one product in detail")
	dismiss := fs.Bool("dismiss", false, "hide the load error banner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	price, err := optDecimal(fs, "max-price", *maxPrice)
	if err != nil {
		return err
	}

	lv := listview.NewProductList(d.client.ListProducts, listview.WithLogger(d.log))
	refreshed(ctx, d, lv, *dismiss)
	lv.SetSearch(*q)
	lv.SetMaxPrice(price)
	if err := lv.SetSort(listview.SortKey(*sortKey)); err != nil {
		return err
	}

	if *id != "" {
		if !lv.Select(*id) {
			return fmt.Errorf("product %s not found", *id)
		}
		p, _ := lv.Selected()
		fmt.Print(render.ProductDetail(p))
		return nil
	}
	fmt.Print(render.Products(lv.Snapshot()))
	return nil
}

func cmdSuppliers(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("fornecedores")
	q := fs.StringP("query", "q", "", "filter by name, description or city")
	sortKey := fs.String("sort", "", "nome")
	id := fs.String("id", "", "show one supplier in detail")
	dismiss := fs.Bool("dismiss", false, "hide the load error banner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lv := listview.NewSupplierList(d.client.ListSuppliers, listview.WithLogger(d.log))
	refreshed(ctx, d, lv, *dismiss)
	lv.SetSearch(*q)
	if err := lv.SetSort(listview.SortKey(*sortKey)); err != nil {
		return err
	}

	if *id != "" {
		if !lv.Select(*id) {
			return fmt.Errorf("supplier %s not found", *id)
		}
		s, _ := lv.Selected()
		fmt.Print(render.SupplierDetail(s))
		return nil
	}
	fmt.Print(render.Suppliers(lv.Snapshot()))
	return nil
}

func cmdSearch(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("buscar")
	q := fs.StringP("query", "q", "", "search term")
	category := fs.String("categoria", listview.CategoryAll, "todos | produtos | bancas")
	maxPrice := fs.String("max-price", "", "maximum product price")
	maxDist := fs.Float64("max-distance", 0, "maximum distance in meters")
	sortKey := fs.String("sort", "", "preco | distancia")
	dismiss := fs.Bool("dismiss", false, "hide the load error banner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	price, err := optDecimal(fs, "max-price", *maxPrice)
	if err != nil {
		return err
	}

	sv := listview.NewSearchView(d.client, d.origin, listview.WithLogger(d.log))
	sv.SetSearch(*q)
	sv.SetMaxPrice(price)
	sv.SetMaxDistance(optFloat(fs, "max-distance", *maxDist))
	if err := sv.SetCategory(*category); err != nil {
		return err
	}
	if err := sv.SetSort(listview.SortKey(*sortKey)); err != nil {
		return err
	}
	refreshed(ctx, d, sv, *dismiss)
	fmt.Print(render.Search(sv.Snapshot(), sv.Category()))
	return nil
}

// ─── Registration form ────────────────────────────────────────────────────────

func cmdRegisterEntity(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("cadastrar")
	kind := fs.String("tipo", string(form.KindSupplier), "fornecedor | banca | produto")
	values := fs.StringToStringP("campo", "c", nil, "field=value, repeatable")
	gps := fs.Bool("gps", false, "fill latitude/longitude from USER_LAT/USER_LON")
	show := fs.Bool("campos", false, "print the empty form and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	k, err := form.ParseKind(*kind)
	if err != nil {
		return err
	}

	f := form.New(d.client, d.log)
	if err := f.SwitchKind(k); err != nil {
		return err
	}
	if *show {
		fmt.Print(render.Form(f.State()))
		return nil
	}

	names := make([]string, 0, len(*values))
	for name := range *values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.Set(name, (*values)[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if *gps {
		_ = f.UseCurrentLocation(ctx, geo.StaticLocator{Point: d.origin})
	}

	submitErr := f.Submit(ctx)
	fmt.Print(render.Form(f.State()))
	return submitErr
}

// ─── Account ──────────────────────────────────────────────────────────────────

func cmdLogin(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := account.NewService(d.client, d.sessions, d.log)
	u, err := svc.Login(ctx, *email, *password)
	if err != nil {
		return loginError(err)
	}
	fmt.Printf("Logged in as %s\n", u.Name)
	return nil
}

func loginError(err error) error {
	if msg, ok := feira.Detail(err); ok {
		return errors.New(msg)
	}
	if errors.Is(err, feira.ErrTransport) {
		return errors.New(form.MsgConnectionFailed)
	}
	return err
}

func cmdSignUp(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("registrar")
	in := account.RegisterInput{}
	fs.StringVar(&in.Name, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.Confirm, "confirm", "", "password confirmation")
	fs.StringVar(&in.Type, "tipo", "", "user | admin | supplier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := account.NewService(d.client, d.sessions, d.log)
	u, err := svc.Register(ctx, in)
	if err != nil {
		return loginError(err)
	}
	fmt.Printf("Account created for %s\n", u.Email)
	return nil
}

func cmdLogout(ctx context.Context, d *deps) error {
	h := session.NewHeader(d.sessions, "/")
	defer h.Close()
	if err := h.Logout(ctx); err != nil {
		return err
	}
	fmt.Print(render.Header(h.View()))
	return nil
}

func cmdWhoami(d *deps, args []string) error {
	fs := newFlags("whoami")
	path := fs.String("path", "/", "current route, for the active link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	h := session.NewHeader(d.sessions, *path)
	defer h.Close()
	fmt.Print(render.Header(h.View()))
	return nil
}

func cmdProfile(ctx context.Context, d *deps, args []string) error {
	fs := newFlags("perfil")
	email := fs.String("email", "", "new email")
	current := fs.String("password", "", "current password")
	next := fs.String("new-password", "", "new password")
	confirm := fs.String("confirm", "", "new password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := account.NewService(d.client, d.sessions, d.log)

	switch {
	case fs.Changed("email"):
		if err := svc.ChangeEmail(ctx, *email); err != nil {
			if msg, ok := feira.Detail(err); ok {
				return errors.New(msg)
			}
			return err
		}
		fmt.Println("Email updated.")
	case fs.Changed("new-password"):
		if err := svc.ChangePassword(*current, *next, *confirm); err != nil {
			return err
		}
		fmt.Println("Password change accepted.")
	default:
		u, ok := d.sessions.Current()
		if !ok {
			return session.ErrNoUser
		}
		fmt.Printf("%s <%s> (%s)\n", u.Name, u.Email, u.Type)
	}
	return nil
}

// ─── Preview server ───────────────────────────────────────────────────────────

func cmdServe(ctx context.Context, d *deps) error {
	views := api.Views{
		Stalls:    listview.NewStallList(d.client.ListStalls, listview.WithLogger(d.log)),
		Products:  listview.NewProductList(d.client.ListProducts, listview.WithLogger(d.log)),
		Suppliers: listview.NewSupplierList(d.client.ListSuppliers, listview.WithLogger(d.log)),
		Search:    listview.NewSearchView(d.client, d.origin, listview.WithLogger(d.log)),
	}
	views.Stalls.SetOrigin(d.origin)

	refresher := jobs.NewAutoRefresher(d.log.Named("jobs"), d.cfg.RefreshInterval, views.Stalls, views.Products, views.Suppliers)
	if d.cfg.RefreshInterval > 0 {
		go refresher.Start(ctx)
		defer refresher.Stop()
	} else if err := refresher.RunOnce(ctx); err != nil {
		d.log.Warn("preview.initial_load_failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  d.cfg.HTTPTimeout,
		WriteTimeout: d.cfg.HTTPTimeout,
	})
	h := api.NewHandler(d.log.Named("api"), views, d.client, d.sessions, d.origin)
	api.RegisterRoutes(app, d.st, h)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(d.cfg.PreviewPort)
		d.log.Info("preview.listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	d.log.Info("preview.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
	return nil
}
