package api

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strconv"

	"golang.org/x/image/draw"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/stereo"
)

type MediaResponseType string

const (
	JPEG MediaResponseType = "jpeg"
	PNG  MediaResponseType = "png"
)

// fullEye selects the decoded image as is, both eyes included for
// packed layouts.
const fullEye = "full"

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// @Summary	fetch the displayed frame
// @Router		/api/snapshot/{eye} [get]
// @Router		/api/snapshot/{eye}/{format} [get]
// @Tags		media
// @Param		eye		path	string				true	"left, right or full"
// @Param		format	path	MediaResponseType	false	"The image type to return"
// @Param		width	query	int					false	"Scale the image down to this width"
// @Param		new		query	int					false	"Only return a frame that was not returned before"
// @Success	200
// @Success	204	"No new frame was displayed since the last snapshot"
// @Failure	400	{string}	string	"The eye, format or width is invalid"
// @Failure	424	{string}	string	"No frame is displayed"
// @Failure	500	{string}	string	"The API does not know how to convert this buffer to an image"
// @Produce	jpeg
// @Produce	png
func (a *Api) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	eyeName := req.PathValue("eye")
	eye := stereo.Left
	if eyeName != fullEye {
		var err error
		eye, err = stereo.ParseEye(eyeName)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	format := MediaResponseType(req.PathValue("format"))
	switch format {
	case "":
		format = JPEG
	case JPEG, PNG:
	default:
		http.Error(w, "Unsupported format", http.StatusBadRequest)
		return
	}

	width := 0
	if ws := req.URL.Query().Get("width"); ws != "" {
		var err error
		width, err = strconv.Atoi(ws)
		if err != nil || width < 1 {
			http.Error(w, "width must be a positive number", http.StatusBadRequest)
			return
		}
	}
	onlyNew := req.URL.Query().Get("new") == "1"

	var left, right encdec.Image
	res, info := a.queue.GetSnapshotInfo(&left, &right, !onlyNew)
	if res != framequeue.SnapshotSuccess {
		if onlyNew {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "No frame displayed", http.StatusFailedDependency)
		return
	}

	img, err := eyeImage(&left, &right, info, eye, eyeName == fullEye)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not convert this frame: %s", err), http.StatusInternalServerError)
		return
	}
	if width > 0 && width < img.Bounds().Dx() {
		img = thumbnail(img, width)
	}

	w.Header().Set("X-Frame-PTS", strconv.FormatFloat(info.PTS, 'f', -1, 64))
	switch format {
	case JPEG:
		w.Header().Set("Content-Type", "image/jpeg")
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 80})
	case PNG:
		w.Header().Set("Content-Type", "image/png")
		err = png.Encode(w, img)
	}
	if err != nil {
		a.log().Warn(fmt.Sprintf("Could not %s encode this frame: %s", format, err))
	}
}

// eyeImage picks the view of one eye out of a snapshot. Mono frames
// show the same view to both eyes, interlaced frames are returned
// whole.
func eyeImage(left, right *encdec.Image, info framequeue.SnapshotInfo, eye stereo.Eye, full bool) (image.Image, error) {
	if info.HasRight && !full {
		if eye == stereo.Right {
			return right.ToImage()
		}
		return left.ToImage()
	}

	img, err := left.ToImage()
	if err != nil || full || !info.Layout.IsPacked() {
		return img, err
	}
	r := info.Layout.EyeRect(eye)
	b := img.Bounds()
	crop := image.Rect(
		int(r[0]*float32(b.Dx())),
		int(r[1]*float32(b.Dy())),
		int((r[0]+r[2])*float32(b.Dx())),
		int((r[1]+r[3])*float32(b.Dy())),
	)
	sub, ok := img.(subImager)
	if !ok {
		return img, nil
	}
	return sub.SubImage(crop), nil
}

func thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	height := max(1, b.Dy()*width/b.Dx())
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
