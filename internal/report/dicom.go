package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mrsinham/ircost/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	secondaryCaptureSOPClass = "1.2.840.10008.5.1.4.1.1.7"
	explicitVRLittleEndian   = "1.2.840.10008.1.2.1"
	// Names and descriptions are written as UTF-8.
	characterSetUTF8 = "ISO_IR 192"
)

// DICOM wraps the rasterized page in a Secondary Capture object so the
// signed summary can be archived next to the procedure images.
type DICOM struct {
	Page    Page
	Created time.Time
	Tags    util.ParsedTags
}

func (d *DICOM) Name() string        { return "dcm" }
func (d *DICOM) ContentType() string { return "application/dicom" }
func (d *DICOM) Extension() string   { return "dcm" }

// mustNewElement creates a DICOM element, panicking on error.
// Only used with value types known to match the tag's VR.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// Render writes one 8-bit MONOCHROME2 frame of the page. UIDs derive from
// the patient and report text, so rendering the same document twice yields
// the same identifiers.
func (d *DICOM) Render(w io.Writer, doc Document) error {
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}

	img := Rasterize(doc, d.Page)
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	pixelsPerFrame := width * height

	nativeFrame := frame.NewNativeFrame[uint8](8, height, width, pixelsPerFrame, 1)
	for y := 0; y < height; y++ {
		copy(nativeFrame.RawData[y*width:(y+1)*width], img.Pix[y*img.Stride:y*img.Stride+width])
	}

	seed := doc.Meta.PatientID + "|" + strings.Join(doc.Lines(), "\n")
	studyUID := util.GenerateDeterministicUID(seed + "|study")
	seriesUID := util.GenerateDeterministicUID(seed + "|series")
	instanceUID := util.GenerateDeterministicUID(seed + "|instance")

	elements := []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{secondaryCaptureSOPClass}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{instanceUID}),
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.SpecificCharacterSet, []string{characterSetUTF8}),
		mustNewElement(tag.SOPClassUID, []string{secondaryCaptureSOPClass}),
		mustNewElement(tag.SOPInstanceUID, []string{instanceUID}),
		mustNewElement(tag.StudyDate, []string{created.Format("20060102")}),
		mustNewElement(tag.StudyTime, []string{created.Format("150405")}),
		mustNewElement(tag.Modality, []string{"OT"}),
		mustNewElement(tag.ConversionType, []string{"WSD"}),
		mustNewElement(tag.StudyDescription, []string{doc.Meta.Operation}),
		mustNewElement(tag.SeriesDescription, []string{doc.Meta.Title}),
		mustNewElement(tag.PatientName, []string{dicomPersonName(doc.Meta.LastName, doc.Meta.FirstName)}),
		mustNewElement(tag.PatientID, []string{doc.Meta.PatientID}),
		mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
		mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
		mustNewElement(tag.SeriesNumber, []string{"1"}),
		mustNewElement(tag.InstanceNumber, []string{"1"}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.Rows, []int{height}),
		mustNewElement(tag.Columns, []int{width}),
		mustNewElement(tag.BitsAllocated, []int{8}),
		mustNewElement(tag.BitsStored, []int{8}),
		mustNewElement(tag.HighBit, []int{7}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
	}

	elements, err := applyOverrides(elements, d.Tags)
	if err != nil {
		return err
	}

	elements = append(elements, mustNewElement(tag.PixelData, dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}))

	if err := dicom.Write(w, dicom.Dataset{Elements: elements}); err != nil {
		return fmt.Errorf("writing dicom: %w", err)
	}
	return nil
}

// applyOverrides replaces or adds user tags and keeps elements in tag order.
func applyOverrides(elements []*dicom.Element, tags util.ParsedTags) ([]*dicom.Element, error) {
	for _, o := range tags {
		elem, err := dicom.NewElement(o.Info.Tag, []string{o.Value})
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", o.Info.Name, err)
		}

		replaced := false
		for i, e := range elements {
			if e.Tag == o.Info.Tag {
				elements[i] = elem
				replaced = true
				break
			}
		}
		if !replaced {
			elements = append(elements, elem)
		}
	}

	sort.SliceStable(elements, func(i, j int) bool { return util.TagLess(elements[i].Tag, elements[j].Tag) })
	return elements, nil
}

// dicomPersonName formats a PN value as FAMILY^Given.
func dicomPersonName(family, given string) string {
	family, given = strings.TrimSpace(family), strings.TrimSpace(given)
	if given == "" {
		return family
	}
	return family + "^" + given
}
