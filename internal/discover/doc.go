// Package discover finds the video files a batch converts.
package discover
