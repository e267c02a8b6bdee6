package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/g-but/fitfoot/internal/listing"
	"github.com/g-but/fitfoot/internal/models"
)

var errNotAdmin = errors.New("admin is not logged in")

func sortedCommands() []string {
	return slices.Sorted(maps.Keys(commands))
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

// oneArg parses flags and requires exactly one positional argument
func oneArg(fs *pflag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected %s", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

func (a *App) login(ctx context.Context, args []string) error {
	return a.loginSlot(ctx, models.SlotCustomer, args)
}

func (a *App) loginAdmin(ctx context.Context, args []string) error {
	return a.loginSlot(ctx, models.SlotAdmin, args)
}

func (a *App) loginSlot(ctx context.Context, slot models.Slot, args []string) error {
	fs := newFlagSet("login")
	password := fs.StringP("password", "p", "", "Password, read from stdin when omitted")
	email, err := oneArg(fs, args, "email")
	if err != nil {
		return err
	}

	if *password == "" {
		if *password, err = a.readSecret("Password"); err != nil {
			return err
		}
	}

	var user models.User
	if slot == models.SlotAdmin {
		user, err = a.manager.LoginAdmin(ctx, email, *password)
	} else {
		user, err = a.manager.LoginCustomer(ctx, email, *password)
	}
	if err != nil {
		return err
	}

	a.printf("Logged in as %s %s\n", slot, describeUser(user))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.manager.Logout(ctx)
	a.printf("Customer logged out\n")
	return nil
}

func (a *App) logoutAdmin(ctx context.Context, _ []string) error {
	a.manager.LogoutAdmin(ctx)
	a.printf("Admin logged out\n")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	show := func(slot models.Slot, user models.User, ok bool) {
		if !ok {
			a.printf("%s: not logged in\n", slot)
			return
		}
		a.printf("%s: %s\n", slot, describeUser(user))
	}

	user, ok := a.manager.Customer()
	show(models.SlotCustomer, user, ok)
	user, ok = a.manager.Admin()
	show(models.SlotAdmin, user, ok)
	return nil
}

func (a *App) refresh(ctx context.Context, _ []string) error {
	if err := a.manager.RefreshToken(ctx); err != nil {
		return err
	}
	a.printf("Token refreshed\n")
	return nil
}

func (a *App) watch(ctx context.Context, _ []string) error {
	done := a.manager.StartMonitor(ctx)
	a.printf("Watching sessions, interrupt to stop\n")
	<-done

	if err := a.manager.LastError(); err != nil {
		a.printf("Last error: %s\n", err.Message)
	}
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var reg models.Registration
	fs.StringVar(&reg.Email, "email", "", "Email")
	fs.StringVar(&reg.FirstName, "first-name", "", "First name")
	fs.StringVar(&reg.LastName, "last-name", "", "Last name")
	fs.StringVar(&reg.Phone, "phone", "", "Phone")
	fs.StringVarP(&reg.Password, "password", "p", "", "Password, read from stdin when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if reg.Password == "" {
		var err error
		if reg.Password, err = a.readSecret("Password"); err != nil {
			return err
		}
	}

	res, err := a.manager.RegisterCustomer(ctx, reg)
	if err != nil {
		return err
	}

	a.printf("%s\n", res.Message)
	if res.ConfirmationURL != "" {
		a.printf("Confirmation link: %s\n", res.ConfirmationURL)
	}
	return nil
}

func (a *App) confirmEmail(ctx context.Context, args []string) error {
	token, err := oneArg(newFlagSet("confirm-email"), args, "token")
	if err != nil {
		return err
	}

	msg, err := a.manager.ConfirmEmail(ctx, token)
	if err != nil {
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

func (a *App) forgotPassword(ctx context.Context, args []string) error {
	email, err := oneArg(newFlagSet("forgot-password"), args, "email")
	if err != nil {
		return err
	}

	msg, err := a.manager.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("reset-password")
	password := fs.StringP("password", "p", "", "New password, read from stdin when omitted")
	confirm := fs.String("confirm", "", "Password confirmation, same as password when omitted")
	token, err := oneArg(fs, args, "token")
	if err != nil {
		return err
	}

	if *password == "" {
		if *password, err = a.readSecret("New password"); err != nil {
			return err
		}
	}
	if *confirm == "" {
		*confirm = *password
	}

	msg, err := a.manager.ResetPassword(ctx, token, *password, *confirm)
	if err != nil {
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

func (a *App) profile(ctx context.Context, _ []string) error {
	user, err := a.manager.Profile(ctx)
	if err != nil {
		return err
	}

	a.printf("%s\n", describeUser(user))
	if user.Phone != "" {
		a.printf("Phone: %s\n", user.Phone)
	}
	return nil
}

func (a *App) profileUpdate(ctx context.Context, args []string) error {
	fs := newFlagSet("profile-update")
	var upd models.ProfileUpdate
	fs.StringVar(&upd.FirstName, "first-name", "", "First name")
	fs.StringVar(&upd.LastName, "last-name", "", "Last name")
	fs.StringVar(&upd.Phone, "phone", "", "Phone, e.g. +41 79 123 45 67")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.manager.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.printf("Profile updated: %s\n", describeUser(user))
	return nil
}

func (a *App) changePassword(ctx context.Context, args []string) error {
	fs := newFlagSet("change-password")
	var change models.PasswordChange
	fs.StringVar(&change.CurrentPassword, "current", "", "Current password, read from stdin when omitted")
	fs.StringVar(&change.NewPassword, "new", "", "New password, read from stdin when omitted")
	fs.StringVar(&change.ConfirmPassword, "confirm", "", "New password confirmation, same as new when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if change.CurrentPassword == "" {
		if change.CurrentPassword, err = a.readSecret("Current password"); err != nil {
			return err
		}
	}
	if change.NewPassword == "" {
		if change.NewPassword, err = a.readSecret("New password"); err != nil {
			return err
		}
	}
	if change.ConfirmPassword == "" {
		change.ConfirmPassword = change.NewPassword
	}

	msg, err := a.manager.ChangePassword(ctx, change)
	if err != nil {
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

func (a *App) bulk(ctx context.Context, args []string) error {
	fs := newFlagSet("bulk")
	var data models.BulkUpdateData
	fs.StringVar(&data.Category, "category", "", "New category")
	fs.StringVar(&data.ProductType, "product-type", "", "New product type (new, refurbished)")
	fs.StringVar(&data.ConditionGrade, "condition-grade", "", "New condition grade")
	percent := fs.String("price-percent", "", "Adjust prices by percent, e.g. -10")
	fixed := fs.String("price-fixed", "", "Adjust prices by amount, e.g. 5.50")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("bulk: expected action and at least one product id")
	}

	token, ok := a.manager.AdminToken()
	if !ok {
		return errNotAdmin
	}

	adjustment, err := priceAdjustment(*percent, *fixed)
	if err != nil {
		return err
	}
	data.PriceAdjustment = adjustment

	op := models.BulkOperation{
		Action:     fs.Arg(0),
		ProductIDs: fs.Args()[1:],
	}
	if op.Action == models.BulkUpdate {
		op.UpdateData = &data
	}

	res, err := a.storefront.BulkProducts(ctx, token, op)
	if err != nil {
		return err
	}

	for _, r := range res.Results {
		a.printf("%-36s %-7s %s\n", r.ProductID, r.Status, r.Message)
	}
	a.printf("Processed %d: %d succeeded, %d failed\n", res.TotalProcessed, res.SuccessfulOperations, res.FailedOperations)
	return nil
}

func priceAdjustment(percent string, fixed string) (*models.PriceAdjustment, error) {
	switch {
	case percent != "" && fixed != "":
		return nil, errors.New("bulk: --price-percent and --price-fixed are mutually exclusive")
	case percent != "":
		v, err := decimal.NewFromString(percent)
		if err != nil {
			return nil, fmt.Errorf("bulk: invalid --price-percent: %w", err)
		}
		return &models.PriceAdjustment{Type: models.PriceAdjustPercentage, Value: v}, nil
	case fixed != "":
		v, err := decimal.NewFromString(fixed)
		if err != nil {
			return nil, fmt.Errorf("bulk: invalid --price-fixed: %w", err)
		}
		return &models.PriceAdjustment{Type: models.PriceAdjustFixed, Value: v}, nil
	}
	return nil, nil
}

// products takes the same filter options as the catalog query string
func (a *App) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products")
	search := fs.String(listing.ParamSearch, "", "Search in name, brand and description")
	categories := fs.StringSlice(listing.ParamCategory, nil, "Categories to include")
	statuses := fs.StringSlice(listing.ParamStatus, nil, "Statuses to include")
	minPrice := fs.String("min-price", "", "Lower price bound")
	maxPrice := fs.String("max-price", "", "Upper price bound")
	inStock := fs.String("in-stock", "", "true, false or any")
	refurbished := fs.String(listing.ParamRefurbished, "", "true, false or any")
	sort := fs.String(listing.ParamSort, "", "date, price-asc, price-desc, rating or name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := url.Values{
		listing.ParamSearch:      {*search},
		listing.ParamCategory:    *categories,
		listing.ParamStatus:      *statuses,
		listing.ParamMinPrice:    {*minPrice},
		listing.ParamMaxPrice:    {*maxPrice},
		listing.ParamInStock:     {*inStock},
		listing.ParamRefurbished: {*refurbished},
		listing.ParamSort:        {*sort},
	}
	filter, err := listing.ParseQuery(q)
	if err != nil {
		return err
	}

	products, err := a.storefront.ListProducts(ctx, filter)
	if err != nil {
		return err
	}

	for _, p := range products {
		a.printf("%-36s %-10s %10s  %s\n", p.ID, p.Category, p.Price.StringFixed(2), p.Title)
	}
	a.printf("%d products\n", len(products))
	return nil
}

func describeUser(u models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	if u.Role != "" {
		return fmt.Sprintf("%s <%s> (%s)", name, u.Email, u.Role)
	}
	return fmt.Sprintf("%s <%s>", name, u.Email)
}
