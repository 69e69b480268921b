package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"practice/internal/application/imageupload"
	"practice/internal/application/orchestrators"
	"practice/internal/domain/advice"
	"practice/internal/domain/image"
	"practice/internal/domain/profile"
	"practice/internal/domain/therapy"
)

// maxFormBytes bounds a multipart form, image included.
const maxFormBytes = 12 << 20

// imageField is the file input name on every image form.
const imageField = "image"

// parseImageForm parses a multipart or urlencoded form and starts an upload session
// for itemID seeded with the current image. The session holds the chosen file, if any.
func parseImageForm(w http.ResponseWriter, r *http.Request, itemID, currentImageURL string) (*imageupload.Session, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	session := imageupload.NewSession(itemID, currentImageURL)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return nil, err
		}
		if files := r.MultipartForm.File[imageField]; len(files) > 0 {
			session.HandleFileChange(imageupload.FileFromHeader(files[0]))
		}
		return session, nil
	}
	return session, r.ParseForm()
}

// imageURL returns the public URL of key in folder, or "" when there is no image.
func imageURL(cdnBase, key string, folder image.Folder) string {
	if info := image.NewInfo(cdnBase, key, folder); info != nil {
		return info.URL
	}
	return ""
}

func imageKey(img *image.Info) string {
	if img == nil {
		return ""
	}
	return img.Key
}

// therapyTarget is the admin therapy form.
type therapyTarget struct {
	form    *imageupload.FieldForm
	current therapy.Therapy
}

func newTherapyTarget(values url.Values, current therapy.Therapy) *therapyTarget {
	f := imageupload.NewFieldForm(values).
		Require("title", "duration_min").
		MaxLength("title", therapy.MaxTitleLength).
		MaxLength("summary", therapy.MaxSummaryLength)
	if v := f.Get("duration_min"); v != "" {
		n, err := strconv.Atoi(v)
		f.Check(err == nil && n > 0 && n <= therapy.MaxDurationMin, "duration_min", "Enter minutes between 1 and 240")
	}
	if v := f.Get("price"); v != "" {
		_, err := parsePriceCents(v)
		f.Check(err == nil, "price", "Enter a price such as 95 or 95.50")
	}
	return &therapyTarget{form: f, current: current}
}

func (t *therapyTarget) Form() imageupload.Form                  { return t.form }
func (t *therapyTarget) CurrentItem() orchestrators.TherapyInput { return therapyInputFrom(t.current) }
func (t *therapyTarget) ItemID() string                          { return t.current.ID }
func (t *therapyTarget) UploadFolder() image.Folder              { return image.FolderTherapy }
func (t *therapyTarget) CurrentImageKey() string                 { return t.current.ImageKey }

func (t *therapyTarget) BuildUpdatedItem(img *image.Info, values url.Values) orchestrators.TherapyInput {
	duration, _ := strconv.Atoi(values.Get("duration_min"))
	price, _ := parsePriceCents(values.Get("price"))
	return orchestrators.TherapyInput{
		ID:          t.current.ID,
		Title:       values.Get("title"),
		Summary:     values.Get("summary"),
		Description: values.Get("description"),
		DurationMin: duration,
		PriceCents:  price,
		ImageKey:    imageKey(img),
		Active:      values.Get("active") == "on",
	}
}

func therapyInputFrom(t therapy.Therapy) orchestrators.TherapyInput {
	return orchestrators.TherapyInput{
		ID: t.ID, Title: t.Title, Summary: t.Summary, Description: t.Description,
		DurationMin: t.DurationMin, PriceCents: t.PriceCents, ImageKey: t.ImageKey, Active: t.Active,
	}
}

// parsePriceCents reads "95", "95.5" or "95.50" as cents. Empty is free.
func parsePriceCents(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	dollars, err := strconv.Atoi(whole)
	if err != nil || dollars < 0 {
		return 0, strconv.ErrSyntax
	}
	cents := 0
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, strconv.ErrSyntax
		}
		if len(frac) == 1 {
			frac += "0"
		}
		if cents, err = strconv.Atoi(frac); err != nil || cents < 0 {
			return 0, strconv.ErrSyntax
		}
	}
	return dollars*100 + cents, nil
}

// adviceTarget is the admin article form.
type adviceTarget struct {
	form    *imageupload.FieldForm
	current advice.Advice
}

func newAdviceTarget(values url.Values, current advice.Advice) *adviceTarget {
	f := imageupload.NewFieldForm(values).
		Require("title", "body").
		MaxLength("title", advice.MaxTitleLength).
		MaxLength("slug", advice.MaxSlugLength)
	if slug := f.Get("slug"); slug != "" {
		f.Check(advice.ValidSlug(slug), "slug", "Use lowercase letters, digits and hyphens")
	}
	return &adviceTarget{form: f, current: current}
}

func (a *adviceTarget) Form() imageupload.Form { return a.form }
func (a *adviceTarget) CurrentItem() orchestrators.AdviceInput {
	return orchestrators.AdviceInput{ID: a.current.ID, Title: a.current.Title, Slug: a.current.Slug, Body: a.current.Body, ImageKey: a.current.ImageKey}
}
func (a *adviceTarget) ItemID() string             { return a.current.ID }
func (a *adviceTarget) UploadFolder() image.Folder { return image.FolderAdvice }
func (a *adviceTarget) CurrentImageKey() string    { return a.current.ImageKey }

func (a *adviceTarget) BuildUpdatedItem(img *image.Info, values url.Values) orchestrators.AdviceInput {
	return orchestrators.AdviceInput{
		ID:       a.current.ID,
		Title:    values.Get("title"),
		Slug:     values.Get("slug"),
		Body:     values.Get("body"),
		ImageKey: imageKey(img),
		Publish:  values.Get("publish") == "on",
	}
}

// profileTarget is the profile form with its avatar.
type profileTarget struct {
	form    *imageupload.FieldForm
	current profile.Profile
}

func newProfileTarget(values url.Values, current profile.Profile) *profileTarget {
	f := imageupload.NewFieldForm(values).
		Require("name").
		MaxLength("name", profile.MaxNameLength).
		MaxLength("phone", profile.MaxPhoneLength).
		MaxLength("child_name", profile.MaxNameLength)
	return &profileTarget{form: f, current: current}
}

func (p *profileTarget) Form() imageupload.Form { return p.form }
func (p *profileTarget) CurrentItem() orchestrators.ProfileInput {
	return orchestrators.ProfileInput{AccountID: p.current.AccountID, Name: p.current.Name, Phone: p.current.Phone, ChildName: p.current.ChildName, AvatarKey: p.current.AvatarKey}
}
func (p *profileTarget) ItemID() string             { return p.current.AccountID }
func (p *profileTarget) UploadFolder() image.Folder { return image.FolderAvatar }
func (p *profileTarget) CurrentImageKey() string    { return p.current.AvatarKey }

func (p *profileTarget) BuildUpdatedItem(img *image.Info, values url.Values) orchestrators.ProfileInput {
	return orchestrators.ProfileInput{
		AccountID: p.current.AccountID,
		Name:      values.Get("name"),
		Phone:     values.Get("phone"),
		ChildName: values.Get("child_name"),
		AvatarKey: imageKey(img),
	}
}
