// Package dashboard builds the dashboard's view models from a ticket
// snapshot. Every builder is a pure function of its inputs: none of them
// perform I/O, keep state between calls, or mutate the slices they are given.
package dashboard
