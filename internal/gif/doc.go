// Package gif proxies GIF search to the Tenor v2 API.
//
// The server-side proxy keeps the Tenor API key out of clients. Results
// are flattened to id, full URL, preview URL, and dimensions; entries
// without a usable URL are dropped.
package gif
