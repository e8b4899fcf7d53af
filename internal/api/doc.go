// Package api serves the reelscript HTTP interface.
//
// Endpoints:
//
//	POST /script/auto            generate script variants for a theme
//	POST /script/save            store a client's edited script
//	GET  /script/saved           list saved scripts (?client_id=)
//	GET  /reels                  usable reels (?age=&gender=&interest=)
//	GET  /settings/{client_id}   saved client settings or defaults
//	PUT  /settings/{client_id}   replace saved client settings
//	GET  /health                 store diagnostics (never requires auth)
//
// When api.token is set every other endpoint requires
// "Authorization: Bearer <token>". Errors are JSON objects with an "error" key
// and a status derived from the error marker. Each request runs under its own
// context, so a client disconnect cancels only its own generation.
package api
