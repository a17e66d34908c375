// Package browser drives Chrome over the DevTools protocol for flows that
// need a real browser session, such as logging in to a third-party site and
// capturing the resulting cookies.
//
// Each Session runs in its own browser context: on a fresh local Chrome
// process, or on a shared remote browser where the context keeps its cookies
// apart from concurrent sessions. The context is disposed on Close.
package browser
