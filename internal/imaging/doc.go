// Package imaging loads source images for annotation and extracts pixel data
// from them.
//
// Coordinates are 0-based image pixels with (0,0) at the top-left corner. Crop
// regions are half open: (x1,y1) is inclusive and (x2,y2) exclusive.
//
// ImageCache decodes each file once and applies EXIF orientation, so the pixel
// grid matches what an editor displays and what annotations are stored in. It
// is safe for concurrent use; the other functions are stateless.
//
//	cache := imaging.NewImageCache()
//	rec, err := imaging.NewRecord(cache, project.ImageDir, "street-01.jpg")
//	if err != nil {
//	    return err
//	}
//	img, _ := cache.Load(filepath.Join(project.ImageDir, rec.FileName))
//	crop, err := imaging.CropAnnotation(img, rec.Annotations[0], 8, 1.0)
package imaging
