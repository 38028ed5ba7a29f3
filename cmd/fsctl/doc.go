// Command fsctl drives a file server from the shell.
//
//	fsctl ls photos
//	fsctl get -o cat.jpg photos/cat.jpg
//	API_KEY=secret fsctl mkdir photos/2024
//	fsctl find -path photos '*.jpg'
//	fsctl hash secret
package main
