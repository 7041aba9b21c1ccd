// Package deploy mirrors a compiled site to object storage.
//
// A deployment is a full, idempotent mirror of the output directory under a
// key prefix: remote objects without a local counterpart are deleted and
// every local file is uploaded. Keys are the site path without its leading
// slash, joined to the prefix with "/" ("www" + "/about/index.html" gives
// "www/about/index.html").
package deploy
