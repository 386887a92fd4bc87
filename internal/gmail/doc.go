// Package gmail composes MIME messages and submits them through the Gmail
// API on behalf of the authorized account.
//
// Messages are built in RFC 2822 form, optionally as multipart/mixed with a
// base64-encoded binary attachment, then base64url-encoded into the raw
// envelope the Gmail API expects. Provider rejections are surfaced as
// *SendError carrying the API's error detail; no retries happen here.
package gmail
