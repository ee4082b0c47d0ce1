//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Cover art and profile image model.
//

package catalog

import "github.com/tidwall/gjson"

// Image is one size of an album or artist image.
type Image struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	URL    string `json:"url"`
}

// ParseImage decodes an image object.
func ParseImage(data []byte) (Image, error) {
	r, err := parseObject(data, "image")
	if err != nil {
		return Image{}, err
	}
	return imageFrom(r), nil
}

// imageFrom decodes an image, defaulting every field.
func imageFrom(r gjson.Result) Image {
	return Image{
		Height: intOr(r, "height", 0),
		Width:  intOr(r, "width", 0),
		URL:    stringOr(r, "url", ""),
	}
}

// imagesFrom decodes an image array, never nil. Vendor order (largest first) is kept.
func imagesFrom(r gjson.Result) []Image {
	images := []Image{}
	for _, item := range objects(r) {
		images = append(images, imageFrom(item))
	}
	return images
}

// thumb returns the URL of the smallest image.
func thumb(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[len(images)-1].URL
}

// large returns the URL of the largest image.
func large(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
