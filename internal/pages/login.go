package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// Role is the account type radio on the login form.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// DemoCredentials is the text the login page shows with the demo account.
const DemoCredentials = "(username is rahulshettyacademy and Password is learning)"

// LoginPage is the shop's sign-in form.
type LoginPage struct {
	page session.Page
	url  string
	x    *expect.Expecter
}

func NewLoginPage(p session.Page, entryURL string, x *expect.Expecter) *LoginPage {
	return &LoginPage{page: p, url: entryURL, x: x}
}

func (l *LoginPage) EntryURL() string { return l.url }

func (l *LoginPage) Navigate(ctx context.Context) error {
	return l.page.Goto(ctx, l.url)
}

func (l *LoginPage) username() session.Locator {
	return l.page.GetByRole("textbox", locate.Contains("Username:"))
}

func (l *LoginPage) password() session.Locator {
	// Password inputs have no ARIA role; the label finds them.
	return l.page.GetByLabel(locate.Contains("Password:"))
}

func (l *LoginPage) terms() session.Locator {
	return l.page.GetByRole("checkbox", locate.Contains("I Agree to the terms and conditions"))
}

// CredentialsHint locates the demo credentials text.
func (l *LoginPage) CredentialsHint() session.Locator {
	return l.page.GetByText(locate.Contains(DemoCredentials))
}

// VerifyLoaded checks the title and the credentials hint.
func (l *LoginPage) VerifyLoaded(ctx context.Context) error {
	if err := l.x.PageToHaveTitle(ctx, l.page, locate.Pattern("LoginPage Practise")); err != nil {
		return err
	}
	return l.x.Locator(l.CredentialsHint()).ToBeVisible(ctx)
}

func (l *LoginPage) EnterUsername(ctx context.Context, user string) error {
	return l.username().Fill(ctx, user)
}

func (l *LoginPage) EnterPassword(ctx context.Context, pass string) error {
	return l.password().Fill(ctx, pass)
}

// SelectUserRole checks the Admin or User radio.
func (l *LoginPage) SelectUserRole(ctx context.Context, role Role) error {
	var name Role
	switch {
	case strings.EqualFold(string(role), string(RoleAdmin)):
		name = RoleAdmin
	case strings.EqualFold(string(role), string(RoleUser)):
		name = RoleUser
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return l.page.GetByRole("radio", locate.Exact(string(name))).Check(ctx)
}

func (l *LoginPage) AcceptTerms(ctx context.Context) error {
	return l.terms().Check(ctx)
}

func (l *LoginPage) SignIn(ctx context.Context) error {
	return l.page.GetByRole("button", locate.Exact("Sign In")).Click(ctx)
}

// Login fills both fields, accepts the terms and submits.
func (l *LoginPage) Login(ctx context.Context, user, pass string) error {
	if err := l.EnterUsername(ctx, user); err != nil {
		return err
	}
	if err := l.EnterPassword(ctx, pass); err != nil {
		return err
	}
	if err := l.AcceptTerms(ctx); err != nil {
		return err
	}
	return l.SignIn(ctx)
}

// VerifyInvalidLogin only checks that the browser stayed on the login URL;
// the site's error banner is not part of the contract.
func (l *LoginPage) VerifyInvalidLogin(ctx context.Context) error {
	return l.x.PageToHaveURL(ctx, l.page, `.*loginpagePractise`)
}

// Shop returns the page object for the page a successful login lands on.
func (l *LoginPage) Shop() *ShopPage {
	return NewShopPage(l.page, l.x)
}
