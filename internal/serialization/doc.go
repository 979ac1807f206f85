// Package serialization saves and restores module parameters as checkpoints.
//
// A checkpoint is a directory:
//
//	manifest.json         Header: format version, model type, tensor list
//	000.weight.npy        one .npy file per parameter, in Parameters() order
//	001.bias.npy
//	...
//
// Every tensor entry carries the SHA-256 of its file, verified on load.
// Loading copies values into the existing parameters in place, so their
// identifiers (and any gradient keys derived from them) survive a restore.
//
// Example usage:
//
//	if _, err := serialization.Save("ckpt", block.Parameters(), serialization.SaveOptions{
//	    ModelType: "TransformerBlock",
//	}); err != nil {
//	    return err
//	}
//
//	header, err := serialization.Load("ckpt", block.Parameters())
package serialization
