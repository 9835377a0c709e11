package config

// Sample is the annotated config written by init-config when no input is given
const Sample = `# .spssprep.yaml

# Spreadsheet to recode (.xlsx, .csv, .tsv)
input: survey.xlsx
# input_sheet: Responses

# Recoded data file; defaults to <input>_encoded.xlsx
output: survey_encoded.xlsx

# Write the .sps beside the data file
place_script_beside_data: true
# script: syntax/survey.sps

# Turn headers into valid SPSS names (unicode or ascii)
sanitize_names: true
name_style: unicode

# Append SAVE OUTFILE to the syntax; save_path defaults to the data file with .sav
include_save: false

# Policy for columns without an entry below
defaults:
  start_value: 1
  direction: ascending

columns:
  - name: "How satisfied are you?"
    kind: ordinal
    order:
      - Very dissatisfied
      - Dissatisfied
      - Neutral
      - Satisfied
      - Very satisfied
  - name: Region
    kind: nominal
    start_value: 0
  - name: Age
    kind: scale
  - name: Comments
    kind: ignore

# Optional: publish target for "spssprep publish"
warehouse:
  url: "sqlite://survey.db"
  table: survey
  batch_size: 500

watch:
  debounce_ms: 500
`
