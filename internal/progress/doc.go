// Package progress draws progress bars for the folder walk and the thumbnail
// phase when stderr is a terminal. Log output is redirected through the
// active bar and restored by [Bar.Finish].
package progress
