// Package cms publishes posts and media to a WordPress site through its REST
// API.
//
// Every request goes through a retry.Invoker. Media uploads and post creation
// only count as successful on 201 Created; MediaURL keeps polling until the
// site reports a non-empty source_url for the attachment.
package cms
