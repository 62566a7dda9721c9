// Package video turns a published post into a video and uploads it.
//
// FFmpegRenderer loops the post image over the narration with the external
// ffmpeg binary, synthesizing a silent track when there is no narration.
// YouTube performs a resumable upload through an OAuth2 client whose tokens
// come from a TokenStore; refreshed tokens are written back so the next run
// starts from the newest credentials. Acquiring the first token is outside
// this package: a missing token file yields ErrAuthorizationMissing.
package video
