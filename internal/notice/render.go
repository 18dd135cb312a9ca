package notice

import (
	"bytes"
	"fmt"
	"html/template"
)

const defaultImageSize = 96

type bannerData struct {
	Key           string
	Labels        Labels
	Image         Image
	Nonce         string
	InstallAction string
	DismissAction string
}

// ImageMarkup returns operator supplied markup, trusted as-is
func (d bannerData) ImageMarkup() template.HTML {
	return template.HTML(d.Image.Markup)
}

func withImageDefaults(img Image) Image {
	if img.Width <= 0 {
		img.Width = defaultImageSize
	}
	if img.Height <= 0 {
		img.Height = defaultImageSize
	}
	return img
}

var bannerTemplate = template.Must(template.New("banner").Parse(`<div id="{{.Key}}" class="notice notice-info" style="display:flex;align-items:stretch;justify-content:space-between;position:relative;border-left-color:#29375B">
	<div style="display:flex;align-items:flex-start;position:relative">
		<div style="margin-right:1.25rem;margin-left:0.5rem;margin-top:1.25rem">
			{{- if .Image.Markup}}{{.ImageMarkup}}{{else}}<img style="width:{{.Image.Width}}px;height:{{.Image.Height}}px" width="{{.Image.Width}}" height="{{.Image.Height}}" src="{{.Image.URL}}" alt="" />{{end -}}
		</div>
		<div>
			<h3 style="margin-bottom:0.25rem;">{{.Labels.Header}}</h3>
			<div>
				<p>{{.Labels.MainContent}}</p>
				<button id="extendify-install-button" type="button" class="button-primary" style="margin-bottom:1rem;margin-top:0.5rem;">{{.Labels.Install}}</button>
				<script>
					jQuery(function ($) {
						$('#extendify-install-button').on('click', function () {
							var _this = $(this);
							var data = {
								action: '{{.InstallAction}}',
								_wpnonce: '{{.Nonce}}'
							};
							_this.attr('disabled', true).text('{{.Labels.Installing}}');
							$.post(window.ajaxurl, data).always(function () {
								_this.text('{{.Labels.Reloading}}');
								setTimeout(function () {
									// Reload on success and failure alike so the notice goes away.
									window.location.reload();
								}, 1500);
							});
						});
					});
				</script>
			</div>
		</div>
	</div>
	<div style="margin:5px -5px 0 0;">
		<button style="max-width:15px;border:0;background:0;color:#7b7b7b;white-space:nowrap;cursor:pointer;padding:0"
			title="{{.Labels.DismissLabel}}"
			aria-label="{{.Labels.DismissLabel}}"
			onclick="jQuery('#{{.Key}}').remove(); jQuery.post(window.ajaxurl, {action: '{{.DismissAction}}', _wpnonce: '{{.Nonce}}'});">
			<svg width="15" height="15" style="width:100%" xmlns="http://www.w3.org/2000/svg" fill="none" viewBox="0 0 24 24" stroke="currentColor">
				<path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M6 18L18 6M6 6l12 12"/>
			</svg>
		</button>
	</div>
</div>
`))

func renderBanner(data bannerData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := bannerTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render notice %s: %w", data.Key, err)
	}
	return template.HTML(buf.String()), nil
}
