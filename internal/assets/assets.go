package assets

import (
	_ "embed"
)

// ResolverJS installs window.__pagewright, the in-page half of the locator
// engine. It is idempotent and safe to evaluate before every call.
//
//go:embed resolver.js
var ResolverJS string

// TodoFixtureHTML is a self-contained TodoMVC page (vanilla JS, localStorage
// persistence) that mirrors the markup of the public demo. Integration
// tests serve it locally.
//
//go:embed todo_fixture.html
var TodoFixtureHTML string
