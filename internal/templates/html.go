package templates

import "html/template"

// tmpl holds every view. Components in this package select a definition by
// name; see component.
var tmpl = template.Must(template.New("billed").Funcs(funcs).Parse(layoutHTML + billsHTML + newBillHTML + miscHTML))

const layoutHTML = `
{{define "layout"}}<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Billed · {{.Title}}</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script>
  // Error responses carry the message to show; swap them like successes.
  document.addEventListener("htmx:beforeSwap", function (e) {
    if (e.detail.xhr.status >= 400) { e.detail.shouldSwap = true; e.detail.isError = false; }
  });
</script>
<style>
  :root { --ink:#0d1117; --paper:#f7f7fb; --accent:#0e5ae5; --muted:#6b6b80; --rule:#d9d9e3;
          --pending:#b7791f; --accepted:#2c6e49; --refused:#c0392b; }
  * { box-sizing: border-box; }
  body { margin:0; background:var(--paper); color:var(--ink); font-family:'Roboto',sans-serif; }
  .layout { display:flex; min-height:100vh; }
  .vertical-navbar { width:120px; background:var(--accent); display:flex; flex-direction:column; align-items:center; padding-top:24px; gap:24px; }
  .vertical-navbar a { color:white; text-decoration:none; font-size:0.75rem; }
  .vertical-navbar a.active-icon { font-weight:700; }
  .content { flex:1; padding:32px; }
  .content-header { display:flex; justify-content:space-between; align-items:center; margin-bottom:24px; }
  .content-title { font-size:1.4rem; font-weight:600; }
  .btn { border:none; padding:10px 18px; cursor:pointer; font-weight:600; text-decoration:none; }
  .btn-primary { background:var(--accent); color:white; }
  .btn-secondary { background:white; color:var(--accent); border:1px solid var(--accent); }
  table { width:100%; border-collapse:collapse; background:white; }
  th, td { text-align:left; padding:10px 12px; border-bottom:1px solid var(--rule); }
  .status { font-weight:600; font-size:0.8rem; }
  .status-pending { color:var(--pending); }
  .status-accepted { color:var(--accepted); }
  .status-refused { color:var(--refused); }
  .form-newbill-container { background:white; padding:24px; display:grid; grid-template-columns:1fr 1fr; gap:16px 32px; }
  label { display:block; font-size:0.75rem; color:var(--muted); margin-bottom:4px; }
  input, select, textarea { width:100%; padding:6px 8px; border:1px solid var(--rule); }
  .proof-ok { color:var(--accepted); font-size:0.8rem; }
  .proof-error, .error-message { color:var(--refused); font-size:0.85rem; }
  #loading { padding:48px; text-align:center; color:var(--muted); }
  .htmx-indicator { opacity:0; transition:opacity 0.2s; }
  .htmx-request .htmx-indicator { opacity:1; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>{{end}}

{{define "vertical-layout"}}
<div class="vertical-navbar">
  <div class="layout-title">Billed</div>
  <a id="layout-icon1" data-testid="icon-window" href="/employee/bills" {{if eq . "bills"}}class="active-icon"{{end}}>Notes de frais</a>
  <a id="layout-icon2" data-testid="icon-mail" href="/employee/bill/new" {{if eq . "new"}}class="active-icon"{{end}}>Nouvelle note</a>
  <form method="post" action="/logout"><button id="layout-disconnect" class="btn btn-secondary" type="submit">Déconnexion</button></form>
</div>
{{end}}
`

const billsHTML = `
{{define "bills"}}
<div class="layout" id="bills-page">
  {{template "vertical-layout" "bills"}}
  <div class="content">
    <div class="content-header">
      <div class="content-title"> Mes notes de frais </div>
      <div>
        <a class="btn btn-secondary" href="/employee/bills/export.csv">CSV</a>
        <a class="btn btn-secondary" href="/employee/bills/export.pdf">PDF</a>
        <a href="/employee/bill/new" data-testid="btn-new-bill" class="btn btn-primary">Nouvelle note de frais</a>
      </div>
    </div>
    <div id="data-table">
    <table id="example" class="table table-striped">
      <thead>
        <tr>
          <th>Type</th>
          <th>Nom</th>
          <th>Date</th>
          <th>Montant</th>
          <th>Statut</th>
          <th>Actions</th>
        </tr>
      </thead>
      <tbody data-testid="tbody">
        {{- range .}}{{template "bill-row" .}}{{end -}}
      </tbody>
    </table>
    </div>
  </div>
</div>
{{end}}

{{define "bill-row"}}
        <tr data-testid="bill-row" data-bill-id="{{.ID}}">
          <td>{{.Type}}</td>
          <td>{{.Name}}</td>
          <td>{{.Date}}</td>
          <td>{{euros .Amount}}</td>
          <td><span class="status {{statusClass .Status}}" data-status="{{.Status}}">{{.Status.Label}}</span></td>
          <td>{{template "actions" .FileURL}}</td>
        </tr>
{{end}}

{{define "actions"}}
          <div class="icon-actions">
            {{- if .}}
            <a id="eye" data-testid="icon-eye" data-bill-url="{{.}}" href="{{.}}" target="_blank" rel="noopener" title="Voir le justificatif">&#128065;</a>
            {{- end}}
          </div>
{{end}}

{{define "loading"}}
<div class="layout">
  {{template "vertical-layout" "bills"}}
  <div class="content">
    <div id="loading" hx-get="{{.}}" hx-trigger="load" hx-target="closest .layout" hx-swap="outerHTML">
      Loading...
    </div>
  </div>
</div>
{{end}}

{{define "error"}}
<div class="layout">
  {{template "vertical-layout" "bills"}}
  <div class="content">
    <div class="content-header">
      <div class="content-title"> Mes notes de frais </div>
    </div>
    <div id="error-page" data-testid="error-message" class="error-message">
      {{.}}
    </div>
  </div>
</div>
{{end}}
`

const newBillHTML = `
{{define "new-bill"}}
<div class="layout" id="new-bill-page">
  {{template "vertical-layout" "new"}}
  <div class="content">
    <div class="content-header">
      <div class="content-title"> Envoyer une note de frais </div>
    </div>
    <form data-testid="form-new-bill" method="post" action="/employee/bill/new" enctype="multipart/form-data"
          hx-post="/employee/bill/new" hx-encoding="multipart/form-data" hx-target="#form-errors" hx-swap="innerHTML">
      <div class="form-newbill-container">
        <div>
          <label for="expense-type">Type de dépense</label>
          <select id="expense-type" name="expense-type" data-testid="expense-type">
            {{- range .Types}}
            <option>{{.}}</option>
            {{- end}}
          </select>
        </div>
        <div>
          <label for="expense-name">Nom de la dépense</label>
          <input type="text" id="expense-name" name="expense-name" data-testid="expense-name" placeholder="Vol Paris Londres">
        </div>
        <div>
          <label for="datepicker">Date</label>
          <input type="date" id="datepicker" name="datepicker" data-testid="datepicker">
        </div>
        <div>
          <label for="amount">Montant TTC</label>
          <input type="text" inputmode="decimal" id="amount" name="amount" data-testid="amount" placeholder="348">
        </div>
        <div>
          <label for="vat">TVA</label>
          <input type="text" inputmode="decimal" id="vat" name="vat" data-testid="vat" placeholder="70">
        </div>
        <div>
          <label for="pct">%</label>
          <input type="text" inputmode="numeric" id="pct" name="pct" data-testid="pct" placeholder="20">
        </div>
        <div>
          <label for="commentary">Commentaire</label>
          <textarea id="commentary" name="commentary" data-testid="commentary" rows="3"></textarea>
        </div>
        <div>
          <label for="file">Justificatif</label>
          <input type="file" id="file" name="file" data-testid="file"{{if .Accept}} accept="{{.Accept}}"{{end}}
                 hx-post="/employee/bill/proof" hx-encoding="multipart/form-data" hx-trigger="change"
                 hx-target="#proof-status" hx-swap="innerHTML" hx-include="this">
          <div id="proof-status"></div>
        </div>
      </div>
      <div id="form-errors" class="error-message"></div>
      <button type="submit" id="btn-send-bill" class="btn btn-primary">Envoyer</button>
    </form>
  </div>
</div>
{{end}}

{{define "proof-status"}}
{{- if .Error}}<span data-testid="proof-status" class="proof-error">{{.Error}}</span>
{{- else}}<span data-testid="proof-status" class="proof-ok" data-file-name="{{.Name}}">{{.Name}}</span>{{end -}}
{{end}}
`

const miscHTML = `
{{define "login"}}
<div class="layout" id="login-page">
  <div class="content">
    <div class="content-header">
      <div class="content-title"> Employé </div>
    </div>
    <form data-testid="form-employee" method="post" action="/login">
      <input type="hidden" name="type" value="Employee">
      <label for="employee-email-input">Votre email</label>
      <input required type="email" id="employee-email-input" name="email" data-testid="employee-email-input" placeholder="johndoe@email.com">
      {{if .}}<div class="error-message" data-testid="login-error">{{.}}</div>{{end}}
      <button type="submit" class="btn btn-primary" data-testid="employee-login-button">Se connecter</button>
    </form>
  </div>
</div>
{{end}}
`
