// Package browser provides the page sessions used by the translate
// package: each loads a URL, keeps it as the "current page", and answers CSS
// selector queries against it.
//
// Chrome drives a headless Chrome tab and runs the page's scripts, which the
// translation site needs to render its language label. Session fetches the
// page over plain HTTP and parses it with goquery; it is enough for pages
// that ship their content in the HTML.
//
// Both are single shared resources: acquire one per run, release it with
// Close (normally via defer), and do not use it from concurrent flows, since
// each Navigate replaces the current page.
//
//	page := browser.NewChrome(
//	    browser.WithChromeImplicitWait(10*time.Second),
//	    browser.WithWaitSelector("#c1 > span"),
//	)
//	defer page.Close()
//
//	if err := page.Navigate(ctx, url); err != nil {
//	    return err
//	}
//	label, err := page.Text("#c1 > span")
package browser
