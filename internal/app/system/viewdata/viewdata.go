// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/authz"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is used until Init provides the configured name.
const DefaultSiteName = "Institut Universitaire de Technologie"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserID     string
	Email      string
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)

	// Toast holds the pending one-shot notification, if any.
	Toast *flash.Message
}

var (
	siteName   = DefaultSiteName
	flashStash *flash.Stash
)

// Init sets the site name and flash stash for viewdata.
// Call this once at startup from bootstrap.
func Init(name string, stash *flash.Stash) {
	if name != "" {
		siteName = name
	}
	flashStash = stash
}

// NewBaseVM creates a fully populated BaseVM for a page. Popping the flash
// message happens here so every rendered page shows at most one pending
// toast.
//
// Parameters:
//   - w: the response writer (needed to clear the flash cookie)
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := New(w, r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	return vm
}

// New creates a BaseVM for the current request.
func New(w http.ResponseWriter, r *http.Request) BaseVM {
	role, name, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    siteName,
		IsLoggedIn:  signedIn,
		UserID:      userID.Hex(),
		Role:        role,
		UserName:    name,
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if signedIn {
		if user, ok := auth.CurrentUser(r); ok {
			vm.Email = user.Email
		}
	}

	if flashStash != nil {
		vm.Toast = flashStash.Pop(w, r)
	}

	return vm
}

// SiteName returns the configured site name.
func SiteName() string {
	return siteName
}
