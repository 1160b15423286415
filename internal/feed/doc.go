// Package feed retrieves the newest posts of a subreddit.
//
// The Reddit source reads the public Atom listing of
// https://www.reddit.com/r/<name>/new/.rss, extracts each post's outbound
// link, and returns posts newest first. Callers may rely on that order to
// stop at the first post that is too old.
package feed
