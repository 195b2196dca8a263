package scenario

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/pages"
	"github.com/pinchtab/pagewright/internal/restapi"
)

// Builtin returns a registry holding every scenario this repository ships.
func Builtin() *Registry {
	r := NewRegistry()
	registerTodo(r)
	registerShop(r)
	registerDocs(r)
	registerAPI(r)
	return r
}

func browser(desc string, run func(ctx context.Context, env *Env) error) Scenario {
	return Scenario{Description: desc, Browser: true, Run: run}
}

// openTodo navigates to the todo app and adds items.
func openTodo(ctx context.Context, env *Env, items ...string) (*pages.TodoPage, error) {
	todo := pages.NewTodoPage(env.Page, env.Config.Sites.Todo)
	if err := todo.Navigate(ctx); err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := todo.AddItem(ctx, it); err != nil {
			return nil, err
		}
	}
	return todo, nil
}

func registerTodo(r *Registry) {
	r.MustRegister("todo/add", browser("add an item and see it listed", func(ctx context.Context, env *Env) error {
		todo, err := openTodo(ctx, env, "Learn Playwright")
		if err != nil {
			return err
		}
		items := env.Expect.Locator(todo.Items())
		if err := items.ToHaveCount(ctx, 1); err != nil {
			return err
		}
		return items.ToHaveText(ctx, locate.Exact("Learn Playwright"))
	}))

	r.MustRegister("todo/complete", browser("toggle an item to completed", func(ctx context.Context, env *Env) error {
		todo, err := openTodo(ctx, env, "Complete automation tests")
		if err != nil {
			return err
		}
		if err := todo.ToggleItem(ctx, 0); err != nil {
			return err
		}
		return env.Expect.Locator(todo.Items()).ToHaveClass(ctx, "completed")
	}))

	r.MustRegister("todo/delete", browser("delete the only item", func(ctx context.Context, env *Env) error {
		todo, err := openTodo(ctx, env, "Delete this todo")
		if err != nil {
			return err
		}
		if err := todo.DeleteItem(ctx, 0); err != nil {
			return err
		}
		return env.Expect.Locator(todo.Items()).ToHaveCount(ctx, 0)
	}))

	r.MustRegister("todo/persist-reload", browser("items survive a reload in order", func(ctx context.Context, env *Env) error {
		todo, err := openTodo(ctx, env, "Persistent todo", "Second todo")
		if err != nil {
			return err
		}
		if err := env.Page.Reload(ctx); err != nil {
			return err
		}
		return env.Expect.Locator(todo.Items()).ToHaveText(ctx,
			locate.Exact("Persistent todo"), locate.Exact("Second todo"))
	}))
}

func signIn(ctx context.Context, env *Env) (*pages.ShopPage, error) {
	login := pages.NewLoginPage(env.Page, env.Config.Sites.Shop, env.Expect)
	if err := login.Navigate(ctx); err != nil {
		return nil, err
	}
	if err := login.VerifyLoaded(ctx); err != nil {
		return nil, err
	}
	if err := login.Login(ctx, env.Config.ShopUser, env.Config.ShopPassword); err != nil {
		return nil, err
	}
	shop := login.Shop()
	if err := shop.VerifyLoaded(ctx); err != nil {
		return nil, err
	}
	return shop, nil
}

func registerShop(r *Registry) {
	r.MustRegister("shop/checkout-iphone", browser("buy an iphone X and see the confirmation", func(ctx context.Context, env *Env) error {
		shop, err := signIn(ctx, env)
		if err != nil {
			return err
		}
		const product = "iphone X"
		if err := shop.VerifyProduct(ctx, product, "$24.99"); err != nil {
			return err
		}
		if err := shop.AddToCart(ctx, product); err != nil {
			return err
		}
		if err := shop.VerifyCartCounter(ctx, 1); err != nil {
			return err
		}
		cart, err := shop.OpenCart(ctx, 1)
		if err != nil {
			return err
		}
		for _, check := range []func(context.Context) error{
			cart.VerifyLoaded,
			func(ctx context.Context) error { return cart.VerifyProduct(ctx, product) },
			func(ctx context.Context) error { return cart.VerifyPrice(ctx, product, "₹. 100000") },
			func(ctx context.Context) error { return cart.VerifyQuantity(ctx, product, "1") },
			func(ctx context.Context) error { return cart.VerifyTotal(ctx, "₹. 100000") },
		} {
			if err := check(ctx); err != nil {
				return err
			}
		}
		checkout, err := cart.ProceedToCheckout(ctx)
		if err != nil {
			return err
		}
		return checkout.CompleteCheckout(ctx, "ind", "India")
	}))

	r.MustRegister("shop/cart-multiple", browser("two products land in the cart", func(ctx context.Context, env *Env) error {
		shop, err := signIn(ctx, env)
		if err != nil {
			return err
		}
		products := []string{"iphone X", "Samsung Note 8"}
		for i, p := range products {
			if err := shop.AddToCart(ctx, p); err != nil {
				return err
			}
			if err := shop.VerifyCartCounter(ctx, i+1); err != nil {
				return err
			}
		}
		cart, err := shop.OpenCart(ctx, len(products))
		if err != nil {
			return err
		}
		for _, p := range products {
			if err := env.Expect.Locator(cart.ProductRow(p)).ToBeVisible(ctx); err != nil {
				return err
			}
		}
		return nil
	}))

	// Only the URL is asserted: the site's error banner is not stable.
	r.MustRegister("shop/invalid-login", browser("wrong credentials keep the login page", func(ctx context.Context, env *Env) error {
		login := pages.NewLoginPage(env.Page, env.Config.Sites.Shop, env.Expect)
		if err := login.Navigate(ctx); err != nil {
			return err
		}
		if err := login.Login(ctx, "wronguser", "wrongpass"); err != nil {
			return err
		}
		return login.VerifyInvalidLogin(ctx)
	}))
}

func openDocs(ctx context.Context, env *Env) (*pages.DocsPage, error) {
	docs := pages.NewDocsPage(env.Page, env.Config.Sites.Docs)
	return docs, docs.Navigate(ctx)
}

func registerDocs(r *Registry) {
	r.MustRegister("docs/title", browser("home page title mentions Playwright", func(ctx context.Context, env *Env) error {
		if _, err := openDocs(ctx, env); err != nil {
			return err
		}
		return env.Expect.PageToHaveTitle(ctx, env.Page, locate.Pattern("Playwright"))
	}))

	r.MustRegister("docs/get-started", browser("get started leads to installation", func(ctx context.Context, env *Env) error {
		docs, err := openDocs(ctx, env)
		if err != nil {
			return err
		}
		if err := docs.OpenGetStarted(ctx); err != nil {
			return err
		}
		return env.Expect.Locator(docs.Heading("Installation")).ToBeVisible(ctx)
	}))

	r.MustRegister("docs/search", browser("searching for locator lists Locators", func(ctx context.Context, env *Env) error {
		docs, err := openDocs(ctx, env)
		if err != nil {
			return err
		}
		if err := docs.Search(ctx, "locator"); err != nil {
			return err
		}
		return env.Expect.Locator(docs.Result("Locators").First()).ToBeVisible(ctx)
	}))
}

// wantStatus fails when resp does not carry the expected status.
func wantStatus(resp *restapi.Response, want int) error {
	if resp.Status != want {
		return &expect.AssertionFailure{
			Assertion: "ToHaveStatus",
			Target:    "response " + truncate(resp.Body, 120),
			Expected:  strconv.Itoa(want),
			Actual:    strconv.Itoa(resp.Status),
		}
	}
	return nil
}

// wantField fails when the body lacks path or, with want set, holds a
// different value there.
func wantField(resp *restapi.Response, path string, want any) error {
	if !resp.Has(path) {
		return &expect.AssertionFailure{Assertion: "ToHaveProperty", Target: "response", Expected: path, Actual: "missing"}
	}
	if want == nil {
		return nil
	}
	if got := resp.Get(path).Value(); fmt.Sprint(got) != fmt.Sprint(want) {
		return &expect.AssertionFailure{
			Assertion: "ToHaveProperty",
			Target:    "response." + path,
			Expected:  fmt.Sprint(want),
			Actual:    fmt.Sprint(got),
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func registerAPI(r *Registry) {
	r.MustRegister("api/get", Scenario{Description: "GET a post", Run: func(ctx context.Context, env *Env) error {
		resp, err := env.API.GetPost(ctx, 1)
		if err != nil {
			return err
		}
		if err := wantStatus(resp, http.StatusOK); err != nil {
			return err
		}
		for path, want := range map[string]any{"id": 1, "title": nil, "body": nil} {
			if err := wantField(resp, path, want); err != nil {
				return err
			}
		}
		return nil
	}})

	r.MustRegister("api/create", Scenario{Description: "POST a post", Run: func(ctx context.Context, env *Env) error {
		post := restapi.Post{UserID: 1, Title: "Test Post", Body: "This is a test post created by pagewright"}
		resp, err := env.API.CreatePost(ctx, post)
		if err != nil {
			return err
		}
		if err := wantStatus(resp, http.StatusCreated); err != nil {
			return err
		}
		if err := wantField(resp, "id", nil); err != nil {
			return err
		}
		return wantField(resp, "title", post.Title)
	}})

	r.MustRegister("api/update", Scenario{Description: "PUT a post", Run: func(ctx context.Context, env *Env) error {
		post := restapi.Post{ID: 1, UserID: 1, Title: "Updated Test Post", Body: "This post has been updated"}
		resp, err := env.API.UpdatePost(ctx, 1, post)
		if err != nil {
			return err
		}
		if err := wantStatus(resp, http.StatusOK); err != nil {
			return err
		}
		var got restapi.Post
		if err := resp.Decode(&got); err != nil {
			return err
		}
		if got.ID != post.ID {
			return &expect.AssertionFailure{
				Assertion: "ToHaveProperty",
				Target:    "response.id",
				Expected:  strconv.Itoa(post.ID),
				Actual:    strconv.Itoa(got.ID),
			}
		}
		return wantField(resp, "title", post.Title)
	}})

	r.MustRegister("api/delete", Scenario{Description: "DELETE a post", Run: func(ctx context.Context, env *Env) error {
		resp, err := env.API.DeletePost(ctx, 1)
		if err != nil {
			return err
		}
		return wantStatus(resp, http.StatusOK)
	}})
}
