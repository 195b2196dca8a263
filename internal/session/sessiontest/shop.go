package sessiontest

import (
	"fmt"
	"strings"
)

// Shop credentials accepted by the fake login page.
const (
	ShopUser     = "rahulshettyacademy"
	ShopPassword = "learning"
)

// Product is a card on the fake shop page.
type Product struct {
	Name  string
	Price string
	// CartPrice is the per-unit amount shown in the cart, in rupees.
	CartPrice int
}

// Products lists the catalog the fake shop renders, in page order.
var Products = []Product{
	{Name: "iphone X", Price: "$24.99", CartPrice: 100000},
	{Name: "Samsung Note 8", Price: "$24.99", CartPrice: 85000},
	{Name: "Nokia Edge", Price: "$24.99", CartPrice: 65000},
	{Name: "Blackberry", Price: "$24.99", CartPrice: 50000},
}

var countries = []string{"India", "British Indian Ocean Territory", "Indonesia", "United States of America", "United Kingdom"}

// ShopSite serves the login page under base+"/loginpagePractise/" and the
// shop under base+"/angularpractice/shop". Signing in with ShopUser and
// ShopPassword and the terms checkbox ticked navigates to the shop.
func ShopSite(base string) []Site {
	base = strings.TrimSuffix(base, "/")
	shopURL := base + "/angularpractice/shop"
	return []Site{
		{Prefix: base + "/loginpagePractise", New: func(string, Storage) App {
			return &loginApp{shopURL: shopURL}
		}},
		{Prefix: shopURL, New: func(string, Storage) App { return &shopApp{} }},
	}
}

// ShopLoginURL is the login entry point of ShopSite(base).
func ShopLoginURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/loginpagePractise/"
}

type loginApp struct {
	shopURL  string
	user     string
	password string
	terms    bool
	failed   bool
}

func (a *loginApp) Title() string { return "LoginPage Practise | Rahul Shetty Academy" }

func (a *loginApp) Render() []*Node {
	form := E("form", "id", "login-form").Append(
		E("h1").T("Sign In"),
	)
	if a.failed {
		form.Append(E("div", "class", "alert alert-danger", "role", "alert").T("Incorrect username/password."))
	}
	form.Append(
		E("label", "for", "username").T("Username:"),
		E("input", "id", "username", "type", "text", "name", "username", "value", a.user),
		E("label", "for", "password").T("Password:"),
		E("input", "id", "password", "type", "password", "name", "password", "value", a.password),
		E("label").Append(E("input", "type", "radio", "name", "radio", "value", "admin").Checked(true), E("span").T("Admin")),
		E("label").Append(E("input", "type", "radio", "name", "radio", "value", "user"), E("span").T("User")),
		E("select", "class", "form-control", "value", "stud").Append(
			E("option", "value", "stud").T("Student"),
			E("option", "value", "teach").T("Teacher"),
			E("option", "value", "consult").T("Consultant"),
		),
		E("input", "id", "terms", "type", "checkbox").Checked(a.terms),
		E("label", "for", "terms").T("I Agree to the terms and conditions"),
		E("input", "id", "signInBtn", "type", "submit", "value", "Sign In"),
	)
	return []*Node{
		form,
		E("p", "class", "text-center text-white").T("(username is rahulshettyacademy and Password is learning)"),
	}
}

func (a *loginApp) Handle(ev Event) Effect {
	switch {
	case ev.Type == EventInput && ev.Target.ID() == "username":
		a.user = ev.Target.value
	case ev.Type == EventInput && ev.Target.ID() == "password":
		a.password = ev.Target.value
	case ev.Type == EventChange && ev.Target.ID() == "terms":
		a.terms = ev.Target.checked
	case ev.Type == EventClick && ev.Target.ID() == "signInBtn":
		if a.user == ShopUser && a.password == ShopPassword && a.terms {
			return Effect{Navigate: a.shopURL}
		}
		a.failed = true
		return Effect{Rerender: true}
	}
	return Effect{}
}

type shopView int

const (
	viewShop shopView = iota
	viewCart
	viewCheckout
)

// shopApp is the single-page shop: product grid, cart table and checkout
// form share one URL.
type shopApp struct {
	view      shopView
	cart      []Product
	country   string
	terms     bool
	purchased bool
}

func (a *shopApp) Title() string { return "ProtoCommerce" }

func (a *shopApp) Render() []*Node {
	nav := E("nav", "class", "navbar").Append(
		E("a", "class", "navbar-brand", "href", "#").T("ProtoCommerce Home"),
		E("a", "class", "nav-link btn btn-primary", "href", "#", "id", "checkout-link").T(fmt.Sprintf("Checkout ( %d )", len(a.cart))),
	)
	switch a.view {
	case viewCart:
		return []*Node{nav, a.renderCart()}
	case viewCheckout:
		return []*Node{nav, a.renderCheckout()}
	}
	grid := E("div", "class", "row")
	for i, p := range Products {
		grid.Append(E("app-card").Append(
			E("div", "class", "card h-100").Append(
				E("div", "class", "card-body").Append(
					E("h4", "class", "card-title").Append(E("a", "href", "#").T(p.Name)),
					E("h5").T(p.Price),
					E("p", "class", "card-text").T("Lorem ipsum dolor sit amet."),
				),
				E("div", "class", "card-footer").Append(
					E("button", "class", "btn btn-info", "data-product", fmt.Sprint(i)).T("Add "),
				),
			),
		))
	}
	return []*Node{nav, E("div", "class", "container").Append(E("h1", "class", "my-4").T("Shop Name"), grid)}
}

func rupees(n int) string { return fmt.Sprintf("₹. %d", n) }

func (a *shopApp) renderCart() *Node {
	body := E("tbody")
	total := 0
	for i, p := range a.cart {
		total += p.CartPrice
		body.Append(E("tr").Append(
			E("td").Append(
				E("h4", "class", "media-heading").Append(E("a", "href", "#").T(p.Name)),
				E("h5", "class", "media-heading").T("by Brand name"),
				E("span").T("Status: "),
				E("span", "class", "text-success").Append(E("strong").T("In Stock")),
			),
			E("td").Append(E("input", "class", "form-control", "type", "number", "value", "1")),
			E("td").Append(E("strong").T(rupees(p.CartPrice))),
			E("td").Append(E("strong").T(rupees(p.CartPrice))),
			E("td").Append(E("button", "class", "btn btn-danger", "data-remove", fmt.Sprint(i)).T("Remove")),
		))
	}
	body.Append(
		E("tr").Append(
			E("td"), E("td"), E("td"),
			E("td").Append(E("h3").T("Total")),
			E("td").Append(E("h3").Append(E("strong").T(rupees(total)))),
		),
		E("tr").Append(
			E("td"), E("td"), E("td"),
			E("td").Append(E("button", "class", "btn btn-default", "id", "continue").T("Continue Shopping")),
			E("td").Append(E("button", "class", "btn btn-success", "id", "checkout").T("Checkout")),
		),
	)
	return E("div", "class", "container").Append(
		E("table", "class", "table table-hover").Append(
			E("thead").Append(E("tr").Append(
				E("th").T("Product"), E("th").T("Quantity"), E("th").T("Price"), E("th").T("Total"), E("th"),
			)),
			body,
		),
	)
}

func (a *shopApp) renderCheckout() *Node {
	box := E("div", "class", "container").Append(
		E("label", "for", "country").T("Please choose your delivery location. Type 2 or more letters"),
		E("input", "id", "country", "type", "text", "class", "validate filter-input form-control", "value", a.country),
	)
	if q := strings.ToLower(a.country); len(q) >= 2 && !a.countryChosen() {
		list := E("ul", "class", "suggestions")
		for _, c := range countries {
			if strings.Contains(strings.ToLower(c), q) {
				list.Append(E("li").Append(E("a", "data-country", c).T(c)))
			}
		}
		box.Append(list)
	}
	box.Append(
		E("div", "class", "checkbox checkbox-primary").Append(
			E("input", "id", "checkbox2", "type", "checkbox").Checked(a.terms),
			E("label", "for", "checkbox2").T("I agree with the term & Conditions"),
		),
		E("input", "type", "submit", "class", "btn btn-success btn-lg", "value", "Purchase"),
	)
	if a.purchased {
		box.Append(E("div", "class", "alert alert-success alert-dismissible").Append(
			E("strong").T("Success!"),
			E("span").T(" Thank you! Your order will be delivered in next few weeks :-)"),
		))
	}
	return box
}

func (a *shopApp) countryChosen() bool {
	for _, c := range countries {
		if c == a.country {
			return true
		}
	}
	return false
}

func (a *shopApp) Handle(ev Event) Effect {
	t := ev.Target
	switch ev.Type {
	case EventClick:
		switch {
		case t.ID() == "checkout-link":
			if len(a.cart) > 0 {
				a.view = viewCart
			}
			return Effect{Rerender: true}
		case t.attrs["data-product"] != "":
			var i int
			fmt.Sscan(t.attrs["data-product"], &i)
			a.cart = append(a.cart, Products[i])
			return Effect{Rerender: true}
		case t.attrs["data-remove"] != "":
			var i int
			fmt.Sscan(t.attrs["data-remove"], &i)
			a.cart = append(a.cart[:i], a.cart[i+1:]...)
			return Effect{Rerender: true}
		case t.ID() == "continue":
			a.view = viewShop
			return Effect{Rerender: true}
		case t.ID() == "checkout":
			a.view = viewCheckout
			return Effect{Rerender: true}
		case t.attrs["data-country"] != "":
			a.country = t.attrs["data-country"]
			return Effect{Rerender: true}
		case t.attrs["value"] == "Purchase":
			a.purchased = a.countryChosen() && a.terms
			return Effect{Rerender: true}
		}
	case EventInput:
		if t.ID() == "country" {
			a.country = t.value
			return Effect{Rerender: true}
		}
	case EventChange:
		if t.ID() == "checkbox2" {
			a.terms = t.checked
			return Effect{Rerender: true}
		}
	}
	return Effect{}
}
