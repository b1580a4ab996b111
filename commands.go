package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"estate_admin/models"
	"estate_admin/services"
)

var (
	seedCmd     = flag.Bool("seed", false, "Seed sample listings if the catalog is empty and exit")
	registerCmd = flag.Bool("register", false, "Create an account from -email, -password and -name")
	loginCmd    = flag.Bool("login", false, "Sign in with -email and -password")
	logoutCmd   = flag.Bool("logout", false, "End the current session")
	whoamiCmd   = flag.Bool("whoami", false, "Show the signed-in account")
	profileCmd  = flag.Bool("profile", false, "Update the signed-in account's -name and -email")
	passwdCmd   = flag.Bool("passwd", false, "Change password from -password to -new-password")
	listCmd     = flag.Bool("list", false, "Print every listing")
	searchCmd   = flag.Bool("search", false, "Print listings matching the filter flags")
	addCmd      = flag.Bool("add", false, "Create a listing from the listing flags (admin)")
	updateID    = flag.String("update", "", "Update the listing with this id from the listing flags given (admin)")
	deleteID    = flag.String("delete", "", "Delete the listing with this id (admin)")
	statsCmd    = flag.Bool("stats", false, "Print dashboard statistics (admin)")
	backupCmd   = flag.Bool("backup", false, "Back up listings and accounts once and exit")
	jsonOut     = flag.Bool("json", false, "Print listings as JSON")

	emailFlag       = flag.String("email", "", "Account email")
	passwordFlag    = flag.String("password", "", "Account password")
	newPasswordFlag = flag.String("new-password", "", "New password for -passwd")
	nameFlag        = flag.String("name", "", "Account display name")

	// search filters
	typeFlag     = flag.String("type", "", "house, apartment or residence")
	opFlag       = flag.String("operation", "", "sale or rental")
	minPriceFlag = flag.String("min-price", "", "Minimum price (inclusive)")
	maxPriceFlag = flag.String("max-price", "", "Maximum price (inclusive)")
	locationFlag = flag.String("location", "", "Location substring")
	textFlag     = flag.String("text", "", "Title or description substring")

	// listing fields for -add/-update; -type, -operation and -location are shared
	titleFlag       = flag.String("title", "", "Listing title")
	descriptionFlag = flag.String("description", "", "Listing description")
	priceFlag       = flag.Float64("price", 0, "Listing price")
	bedroomsFlag    = flag.Int("bedrooms", 0, "Bedrooms")
	bathroomsFlag   = flag.Int("bathrooms", 0, "Bathrooms")
	areaFlag        = flag.Float64("area", 0, "Area in square meters")
	imagesFlag      = flag.String("images", "", "Comma separated image URLs")
	featuresFlag    = flag.String("features", "", "Comma separated features")
	whatsappFlag    = flag.String("whatsapp", "", "WhatsApp contact")
	telegramFlag    = flag.String("telegram", "", "Telegram contact")
)

var errAdminRequired = errors.New("admin session required (sign in with -login)")

// runCommand executes the one-shot command selected by flags. handled is
// false when no command flag was given.
func (a *app) runCommand(ctx context.Context) (handled bool, err error) {
	switch {
	case *seedCmd:
		return true, a.cmdSeed(ctx)
	case *registerCmd:
		return true, a.cmdRegister(ctx)
	case *loginCmd:
		return true, a.cmdLogin(ctx)
	case *logoutCmd:
		return true, a.accounts.Logout(ctx)
	case *whoamiCmd:
		return true, a.cmdWhoami(ctx)
	case *profileCmd:
		return true, a.cmdProfile(ctx)
	case *passwdCmd:
		return true, a.cmdPasswd(ctx)
	case *listCmd:
		return true, a.cmdSearch(ctx, models.SearchCriteria{})
	case *searchCmd:
		criteria, err := criteriaFromFlags()
		if err != nil {
			return true, err
		}
		return true, a.cmdSearch(ctx, criteria)
	case *addCmd:
		return true, a.cmdAdd(ctx)
	case *updateID != "":
		return true, a.cmdUpdate(ctx, *updateID)
	case *deleteID != "":
		return true, a.cmdDelete(ctx, *deleteID)
	case *statsCmd:
		return true, a.cmdStats(ctx)
	case *backupCmd:
		return true, a.cmdBackup(ctx)
	}
	return false, nil
}

func (a *app) cmdSeed(ctx context.Context) error {
	n, err := a.listings.InitializeSampleData(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("Catalog already has listings, nothing seeded")
		return nil
	}
	fmt.Printf("Seeded %d sample listings\n", n)
	return nil
}

func (a *app) cmdRegister(ctx context.Context) error {
	if strings.TrimSpace(*emailFlag) == "" || strings.TrimSpace(*nameFlag) == "" {
		return errors.New("-email and -name are required")
	}
	if err := models.ValidatePassword(*passwordFlag); err != nil {
		return err
	}
	u, err := a.accounts.CreateUser(ctx, *emailFlag, *passwordFlag, *nameFlag)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s account %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}

func (a *app) cmdLogin(ctx context.Context) error {
	u, err := a.accounts.Login(ctx, *emailFlag, *passwordFlag)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", u.Name, u.Role)
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	u, err := a.accounts.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s> %s\n", u.Name, u.Email, u.Role)
	return nil
}

func (a *app) cmdProfile(ctx context.Context) error {
	u, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	name, email := u.Name, u.Email
	if *nameFlag != "" {
		name = *nameFlag
	}
	if *emailFlag != "" {
		email = *emailFlag
	}
	updated, err := a.accounts.UpdateProfile(ctx, u.ID, name, email)
	if err != nil {
		return err
	}
	fmt.Printf("Profile updated: %s <%s>\n", updated.Name, updated.Email)
	return nil
}

func (a *app) cmdPasswd(ctx context.Context) error {
	u, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if err := models.ValidatePassword(*newPasswordFlag); err != nil {
		return err
	}
	if err := a.accounts.ChangePassword(ctx, u.ID, *passwordFlag, *newPasswordFlag); err != nil {
		return err
	}
	fmt.Println("Password changed")
	return nil
}

func (a *app) cmdSearch(ctx context.Context, criteria models.SearchCriteria) error {
	props, err := a.listings.SearchProperties(ctx, criteria)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(props)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tOPERATION\tPRICE\tBEDS\tBATHS\tLOCATION")
	for _, p := range props {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%d\t%d\t%s\n",
			p.ID, p.Title, p.Type, p.Operation, p.Price, p.Bedrooms, p.Bathrooms, p.Location)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d listings\n", len(props))
	return nil
}

func (a *app) cmdAdd(ctx context.Context) error {
	if !a.accounts.IsAdmin(ctx) {
		return errAdminRequired
	}
	in := models.PropertyInput{}
	applyListingFlags(&in)
	if err := in.Validate(); err != nil {
		return err
	}
	p, err := a.listings.CreateProperty(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Created listing %s\n", p.ID)
	return nil
}

// cmdUpdate behaves like the admin edit form: the stored listing is merged
// with the flags given, validated as a whole, then written back in full.
func (a *app) cmdUpdate(ctx context.Context, id string) error {
	if !a.accounts.IsAdmin(ctx) {
		return errAdminRequired
	}
	p, err := a.listings.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("update %s: %w", id, services.ErrListingNotFound)
	}

	in := models.PropertyInput{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Type:        p.Type,
		Operation:   p.Operation,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Area:        p.Area,
		Location:    p.Location,
		Images:      p.Images,
		Features:    p.Features,
		Contact:     p.Contact,
	}
	applyListingFlags(&in)
	if err := in.Validate(); err != nil {
		return err
	}

	updated, err := a.listings.UpdateProperty(ctx, id, models.PatchFromInput(in))
	if err != nil {
		return err
	}
	fmt.Printf("Updated listing %s at %s\n", updated.ID, updated.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) cmdDelete(ctx context.Context, id string) error {
	if !a.accounts.IsAdmin(ctx) {
		return errAdminRequired
	}
	if err := a.listings.DeleteProperty(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	if !a.accounts.IsAdmin(ctx) {
		return errAdminRequired
	}
	stats, err := a.listings.Stats(ctx)
	if err != nil {
		return err
	}
	users, err := a.accounts.ListUsers(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Listings:   %d\n", stats.Total)
	fmt.Printf("For sale:   %d\n", stats.ForSale)
	fmt.Printf("For rent:   %d\n", stats.ForRent)
	fmt.Printf("Sale value: %.2f\n", stats.TotalSaleValue)
	for _, t := range models.PropertyTypes {
		fmt.Printf("  %-10s %d\n", t, stats.ByType[t])
	}
	fmt.Printf("Accounts:   %d\n", len(users))
	return nil
}

func (a *app) cmdBackup(ctx context.Context) error {
	if !a.cfg.Backup.Enabled() {
		return errors.New("backups not configured (set S3_BUCKET and S3_REGION, or SUPABASE_URL and SUPABASE_SERVICE_KEY)")
	}
	result, err := a.backup.Backup(ctx)
	if err != nil {
		return err
	}
	if s3, ok := a.uploader.(interface{ URL(string) string }); ok {
		fmt.Printf("Backed up %d listings and %d accounts to %s\n", result.Listings, result.Users, s3.URL(result.Prefix))
	}
	if result.Mirrored {
		fmt.Printf("Mirrored %d listings to %s\n", result.Listings, a.cfg.Backup.Mirror.URL)
	}
	return nil
}

func (a *app) requireUser(ctx context.Context) (*models.User, error) {
	u, err := a.accounts.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("not signed in (use -login)")
	}
	return u, nil
}

func criteriaFromFlags() (models.SearchCriteria, error) {
	c := models.SearchCriteria{
		Type:      models.PropertyType(strings.ToLower(*typeFlag)),
		Operation: models.Operation(strings.ToLower(*opFlag)),
		Location:  *locationFlag,
		Text:      *textFlag,
	}
	if c.Type != "" && !c.Type.Valid() {
		return c, fmt.Errorf("%w: unknown type %q", models.ErrInvalidInput, *typeFlag)
	}
	if c.Operation != "" && !c.Operation.Valid() {
		return c, fmt.Errorf("%w: unknown operation %q", models.ErrInvalidInput, *opFlag)
	}

	var err error
	if c.MinPrice, err = parsePriceFlag(*minPriceFlag); err != nil {
		return c, fmt.Errorf("-min-price: %w", err)
	}
	if c.MaxPrice, err = parsePriceFlag(*maxPriceFlag); err != nil {
		return c, fmt.Errorf("-max-price: %w", err)
	}
	return c, nil
}

func parsePriceFlag(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// applyListingFlags copies the listing flags that were set on the command
// line into in, leaving the others alone.
func applyListingFlags(in *models.PropertyInput) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			in.Title = *titleFlag
		case "description":
			in.Description = *descriptionFlag
		case "price":
			in.Price = *priceFlag
		case "type":
			in.Type = models.PropertyType(strings.ToLower(*typeFlag))
		case "operation":
			in.Operation = models.Operation(strings.ToLower(*opFlag))
		case "bedrooms":
			in.Bedrooms = *bedroomsFlag
		case "bathrooms":
			in.Bathrooms = *bathroomsFlag
		case "area":
			in.Area = *areaFlag
		case "location":
			in.Location = *locationFlag
		case "images":
			in.Images = models.SplitList(*imagesFlag)
		case "features":
			in.Features = models.SplitList(*featuresFlag)
		case "whatsapp":
			in.Contact.WhatsApp = *whatsappFlag
		case "telegram":
			in.Contact.Telegram = *telegramFlag
		}
	})
}
