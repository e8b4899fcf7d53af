// Command reelscript is the operator CLI: it scrapes reels into the local
// store, generates scripts, manages client settings and diagnoses the
// environment. The scrape command exits with status 2 when the platform
// blocks scraping and 1 on any other failure.
package main
