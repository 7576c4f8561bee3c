//go:build matprofile

package metrics

import "gocv.io/x/gocv"

func liveMats() int { return gocv.MatProfile.Count() }
