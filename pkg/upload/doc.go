// Package upload receives files that displays send over the WebSocket in
// file-upload messages.
//
// A component that expects a file asks Files for a ByteStream by name. Each
// file-upload chunk for that name is put on the stream; the last chunk
// closes it. The component reads the stream, or hands it to Drain to
// persist it in a Sink:
//
//	stream := files.Get("avatar.png")
//	go func() {
//	    id, err := files.Drain(ctx, "avatar.png", stream, sink)
//	    ...
//	}()
//
// Chunks for names nobody asked for are dropped. Files bounds the number of
// streams receiving at once and closes streams that do not complete in time.
//
// For large files a plain HTTP POST is friendlier to the event loop; Handler
// accepts multipart uploads and saves them to a Sink directly.
package upload
